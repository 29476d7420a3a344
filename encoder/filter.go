package encoder

import (
	"fmt"
	"strings"

	"vidcrush/config"
)

// ApplyLegacyCaps clamps resolution and bitrate for encoders whose formats
// predate modern rate control. H.261 tops out at CIF and only reliably
// accepts 64k; the other ancient formats bloat badly past SD.
func ApplyLegacyCaps(enc string, res, kbps int) (int, int) {
	switch enc {
	case "h261":
		if res > 288 {
			res = 288
		}
		if kbps > 64 {
			kbps = 64
		}
	case "h263", "flv", "roqvideo", "cinepak":
		if res > 480 {
			res = 480
		}
		if kbps > 2000 {
			kbps = 2000
		}
	}
	return res, kbps
}

// BuildFilter assembles the -vf chain for one attempt. Order matters:
// geometry first (including the per-encoder legacy overrides), then
// denoise, then pixel format. For VAAPI encoders the software chain is
// rewritten into an upload chain, keeping only the denoise stage on the CPU
// side since VAAPI frames cannot pass through hqdn3d.
func BuildFilter(enc string, res int, adv config.Advanced) string {
	pixfmt := adv.PixelFormat
	if pixfmt == "" {
		pixfmt = "yuv420p"
		if adv.TenBit {
			pixfmt = "yuv420p10le"
		}
	}

	var chain string
	switch enc {
	case "h261":
		// Only QCIF (176x144) and CIF (352x288) exist, at exactly 29.97.
		w, h := 176, 144
		if res >= 288 {
			w, h = 352, 288
		}
		chain = fmt.Sprintf("scale=%d:%d,format=%s,fps=30000/1001", w, h, pixfmt)
	case "roqvideo":
		// RoQ wants dimensions in multiples of 16 and a steady 30fps.
		chain = fmt.Sprintf("scale='trunc(iw/16)*16':'trunc(ih/16)*16',format=%s,fps=30", pixfmt)
	case "h263":
		chain = fmt.Sprintf("scale='bitand(iw, -16)':'bitand(ih, -16)',format=%s", pixfmt)
	case "cinepak":
		chain = fmt.Sprintf("scale='bitand(iw, -4)':'bitand(ih, -4)',format=%s,fps=30", pixfmt)
	default:
		chain = fmt.Sprintf("scale=-2:%d,format=%s", res, pixfmt)
	}

	denoise := ""
	if adv.Denoise {
		denoise = fmt.Sprintf("hqdn3d=%d:%d:%d:%d",
			adv.DenoiseLumaSpatial, adv.DenoiseChromaSpatial,
			adv.DenoiseLumaTemporal, adv.DenoiseChromaTemporal)
		chain += "," + denoise
	}

	if adv.FrameRate != "" && !strings.Contains(chain, "fps=") {
		chain += ",fps=" + adv.FrameRate
	}

	if strings.Contains(enc, "vaapi") {
		// VAAPI needs nv12 (or p010 for 10-bit) uploaded to the device, with
		// scaling done by scale_vaapi on the GPU side.
		hwfmt := "nv12"
		if adv.TenBit {
			hwfmt = "p010"
		}
		prefix := ""
		if denoise != "" {
			prefix = denoise + ","
		}
		chain = fmt.Sprintf("%sformat=%s,hwupload,scale_vaapi=w=-2:h=%d", prefix, hwfmt, res)
	}

	return chain
}
