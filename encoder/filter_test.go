package encoder

import (
	"strings"
	"testing"

	"vidcrush/config"
)

func TestApplyLegacyCaps(t *testing.T) {
	tests := []struct {
		enc      string
		res      int
		kbps     int
		wantRes  int
		wantKbps int
	}{
		{"h261", 1080, 1164, 288, 64},
		{"h261", 144, 32, 144, 32},
		{"h263", 1080, 5000, 480, 2000},
		{"flv", 720, 1500, 480, 1500},
		{"roqvideo", 360, 3000, 360, 2000},
		{"cinepak", 1440, 8000, 480, 2000},
		{"libx264", 1440, 8000, 1440, 8000},
	}

	for _, tc := range tests {
		res, kbps := ApplyLegacyCaps(tc.enc, tc.res, tc.kbps)
		if res != tc.wantRes || kbps != tc.wantKbps {
			t.Errorf("ApplyLegacyCaps(%q, %d, %d) = (%d, %d), want (%d, %d)",
				tc.enc, tc.res, tc.kbps, res, kbps, tc.wantRes, tc.wantKbps)
		}
	}
}

func TestBuildFilterDefault(t *testing.T) {
	got := BuildFilter("libx264", 720, config.Advanced{})
	if got != "scale=-2:720,format=yuv420p" {
		t.Errorf("BuildFilter default = %q", got)
	}
}

func TestBuildFilterLegacyGeometry(t *testing.T) {
	// H.261 only knows QCIF and CIF at exactly 29.97fps
	got := BuildFilter("h261", 288, config.Advanced{})
	if got != "scale=352:288,format=yuv420p,fps=30000/1001" {
		t.Errorf("h261 CIF filter = %q", got)
	}
	got = BuildFilter("h261", 144, config.Advanced{})
	if got != "scale=176:144,format=yuv420p,fps=30000/1001" {
		t.Errorf("h261 QCIF filter = %q", got)
	}

	got = BuildFilter("roqvideo", 480, config.Advanced{})
	if !strings.Contains(got, "trunc(iw/16)*16") || !strings.Contains(got, "fps=30") {
		t.Errorf("roqvideo filter = %q, want /16 geometry and fps=30", got)
	}

	got = BuildFilter("h263", 480, config.Advanced{})
	if !strings.Contains(got, "bitand(iw, -16)") {
		t.Errorf("h263 filter = %q, want bitand -16 geometry", got)
	}
	if strings.Contains(got, "fps=") {
		t.Errorf("h263 filter = %q, should not force a frame rate", got)
	}

	got = BuildFilter("cinepak", 480, config.Advanced{})
	if !strings.Contains(got, "bitand(iw, -4)") || !strings.Contains(got, "fps=30") {
		t.Errorf("cinepak filter = %q, want bitand -4 geometry and fps=30", got)
	}
}

func TestBuildFilterDenoise(t *testing.T) {
	adv := config.GetProfile(config.ProfileDefault)
	adv.Denoise = true

	got := BuildFilter("libx264", 1080, adv)
	want := "scale=-2:1080,format=yuv420p,hqdn3d=2:2:7:7"
	if got != want {
		t.Errorf("denoise filter = %q, want %q", got, want)
	}

	// Custom strengths flow through
	adv.DenoiseLumaSpatial = 4
	adv.DenoiseLumaTemporal = 9
	got = BuildFilter("libx264", 1080, adv)
	if !strings.Contains(got, "hqdn3d=4:2:9:7") {
		t.Errorf("custom denoise filter = %q", got)
	}
}

func TestBuildFilterTenBit(t *testing.T) {
	got := BuildFilter("libsvtav1", 1080, config.Advanced{TenBit: true})
	if got != "scale=-2:1080,format=yuv420p10le" {
		t.Errorf("10-bit filter = %q", got)
	}
}

func TestBuildFilterVAAPI(t *testing.T) {
	got := BuildFilter("h264_vaapi", 720, config.Advanced{})
	if got != "format=nv12,hwupload,scale_vaapi=w=-2:h=720" {
		t.Errorf("vaapi filter = %q", got)
	}

	// 10-bit swaps the upload format to p010
	got = BuildFilter("hevc_vaapi", 1080, config.Advanced{TenBit: true})
	if got != "format=p010,hwupload,scale_vaapi=w=-2:h=1080" {
		t.Errorf("vaapi 10-bit filter = %q", got)
	}

	// Denoise stays on the CPU side, before the upload
	adv := config.GetProfile(config.ProfileDefault)
	adv.Denoise = true
	got = BuildFilter("h264_vaapi", 720, adv)
	want := "hqdn3d=2:2:7:7,format=nv12,hwupload,scale_vaapi=w=-2:h=720"
	if got != want {
		t.Errorf("vaapi denoise filter = %q, want %q", got, want)
	}
}

func TestBuildFilterFrameRateOverride(t *testing.T) {
	got := BuildFilter("libx264", 720, config.Advanced{FrameRate: "24"})
	if !strings.HasSuffix(got, ",fps=24") {
		t.Errorf("framerate filter = %q, want trailing fps=24", got)
	}

	// Legacy chains that already pin fps are left alone
	got = BuildFilter("cinepak", 480, config.Advanced{FrameRate: "24"})
	if strings.Contains(got, "fps=24") {
		t.Errorf("cinepak filter = %q, must keep its pinned fps=30", got)
	}
}

func TestIsLegacyEncoder(t *testing.T) {
	for _, enc := range []string{"h261", "h263", "roqvideo", "snow", "cinepak", "msmpeg4v2", "libxvid", "flv", "smc", "wmv3"} {
		if !isLegacyEncoder(enc) {
			t.Errorf("isLegacyEncoder(%q) = false, want true", enc)
		}
	}
	for _, enc := range []string{"libx264", "libsvtav1", "h264_nvenc", "hevc_vaapi"} {
		if isLegacyEncoder(enc) {
			t.Errorf("isLegacyEncoder(%q) = true, want false", enc)
		}
	}
}
