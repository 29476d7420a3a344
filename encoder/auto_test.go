package encoder

import (
	"os"
	"path/filepath"
	"testing"

	"vidcrush/config"
	"vidcrush/ffmpeg"
)

func TestNormalizeOutputPath(t *testing.T) {
	tests := []struct {
		input  string
		output string
		codec  string
		want   string
	}{
		// Default naming
		{"/videos/clip.mov", "", "h264", "compressed_h264_clip.mp4"},
		{"/videos/clip.mov", "", "h261", "compressed_h261_clip.mkv"},
		{"clip.with.dots.mp4", "", "av1", "compressed_av1_clip.with.dots.mp4"},
		// Legacy codecs force MKV
		{"in.mp4", "out.mp4", "cinepak", "out.mkv"},
		{"in.mp4", "out.MP4", "roq", "out.mkv"},
		// Non-legacy codecs keep the requested container
		{"in.mp4", "out.mp4", "h264", "out.mp4"},
		{"in.mp4", "out.webm", "vp9", "out.webm"},
		// Already-correct legacy outputs pass through
		{"in.mp4", "out.mkv", "snow", "out.mkv"},
	}

	for _, tc := range tests {
		if got := NormalizeOutputPath(tc.input, tc.output, tc.codec); got != tc.want {
			t.Errorf("NormalizeOutputPath(%q, %q, %q) = %q, want %q",
				tc.input, tc.output, tc.codec, got, tc.want)
		}
	}
}

func TestNormalizeOutputPathIdempotent(t *testing.T) {
	for _, codec := range []string{"h264", "h261", "roq", "vp9"} {
		once := NormalizeOutputPath("in.mp4", "out.mp4", codec)
		twice := NormalizeOutputPath("in.mp4", once, codec)
		if once != twice {
			t.Errorf("codec %s: NormalizeOutputPath not idempotent: %q then %q", codec, once, twice)
		}
	}
}

// testAuto builds an AutoCompressor whose attempts are simulated by fn.
func testAuto(t *testing.T, fn func(res int, useGPU bool, output string) Outcome) *AutoCompressor {
	t.Helper()
	return &AutoCompressor{
		Logf: func(string, ...any) {},
		run: func(input, output string, targetMB float64, res int, codec string, useGPU bool, adv config.Advanced, cancel *ffmpeg.Cancel) Outcome {
			return fn(res, useGPU, output)
		},
	}
}

func writeSized(t *testing.T, path string, mb float64) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, int(mb*1048576)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAutoCompressSuccessFirstTier(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")

	var resolutions []int
	auto := testAuto(t, func(res int, useGPU bool, output string) Outcome {
		resolutions = append(resolutions, res)
		writeSized(t, output, 0.5)
		return OutcomeOK
	})

	res := auto.Run("in.mp4", out, 1.0, "h264", false, config.Advanced{}, ffmpeg.NewCancel())
	if res.Status != ResultSuccess {
		t.Fatalf("Status = %v, want ResultSuccess", res.Status)
	}
	if res.Path != out {
		t.Errorf("Path = %q, want %q", res.Path, out)
	}
	if res.SizeMB <= 0 || res.SizeMB > 1.0 {
		t.Errorf("SizeMB = %v, want within target", res.SizeMB)
	}
	if len(resolutions) != 1 || resolutions[0] != 1440 {
		t.Errorf("resolutions tried = %v, want just 1440", resolutions)
	}
}

func TestAutoCompressWalksLadder(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")

	var resolutions []int
	auto := testAuto(t, func(res int, useGPU bool, output string) Outcome {
		resolutions = append(resolutions, res)
		// Only the 480 tier fits
		if res == 480 {
			writeSized(t, output, 0.8)
		} else {
			writeSized(t, output, 5)
		}
		return OutcomeOK
	})

	res := auto.Run("in.mp4", out, 1.0, "h264", false, config.Advanced{}, ffmpeg.NewCancel())
	if res.Status != ResultSuccess {
		t.Fatalf("Status = %v, want ResultSuccess", res.Status)
	}
	want := []int{1440, 1080, 720, 480}
	if len(resolutions) != len(want) {
		t.Fatalf("resolutions tried = %v, want %v", resolutions, want)
	}
	for i := range want {
		if resolutions[i] != want[i] {
			t.Fatalf("resolutions tried = %v, want %v", resolutions, want)
		}
	}
}

func TestAutoCompressOversizedIsDistinct(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")

	auto := testAuto(t, func(res int, useGPU bool, output string) Outcome {
		// Every tier encodes fine but lands above the 1MB target, smaller
		// at lower resolutions.
		writeSized(t, output, 1.0+float64(res)/1000)
		return OutcomeOK
	})

	res := auto.Run("in.mp4", out, 1.0, "h264", false, config.Advanced{}, ffmpeg.NewCancel())
	if res.Status != ResultOversized {
		t.Fatalf("Status = %v, want ResultOversized", res.Status)
	}
	if res.Path != out {
		t.Errorf("Path = %q, want the produced file", res.Path)
	}
	// The best size is the smallest tier's result (360p)
	if res.SizeMB < 1.0 || res.SizeMB > 1.4 {
		t.Errorf("SizeMB = %v, want the 360p attempt's size (~1.36)", res.SizeMB)
	}
}

func TestAutoCompressAllFailed(t *testing.T) {
	auto := testAuto(t, func(res int, useGPU bool, output string) Outcome {
		return OutcomeFailed
	})

	res := auto.Run("in.mp4", filepath.Join(t.TempDir(), "out.mp4"), 1.0, "h264", false, config.Advanced{}, ffmpeg.NewCancel())
	if res.Status != ResultFailed {
		t.Errorf("Status = %v, want ResultFailed", res.Status)
	}
}

func TestAutoCompressGPUFallback(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")

	type call struct {
		res int
		gpu bool
	}
	var calls []call
	auto := testAuto(t, func(res int, useGPU bool, output string) Outcome {
		calls = append(calls, call{res, useGPU})
		if useGPU {
			return OutcomeFailed
		}
		writeSized(t, output, 0.5)
		return OutcomeOK
	})

	res := auto.Run("in.mp4", out, 1.0, "h264", true, config.Advanced{}, ffmpeg.NewCancel())
	if res.Status != ResultSuccess {
		t.Fatalf("Status = %v, want ResultSuccess", res.Status)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want GPU then software at the same tier", calls)
	}
	if !calls[0].gpu || calls[1].gpu {
		t.Errorf("calls = %v, want gpu=true then gpu=false", calls)
	}
	if calls[0].res != calls[1].res {
		t.Errorf("calls = %v, software retry must stay at the same tier", calls)
	}
}

func TestAutoCompressCancellation(t *testing.T) {
	cancel := ffmpeg.NewCancel()

	var attempts int
	auto := testAuto(t, func(res int, useGPU bool, output string) Outcome {
		attempts++
		// Simulates the user stopping mid-attempt
		cancel.Stop()
		return OutcomeCancelled
	})

	res := auto.Run("in.mp4", filepath.Join(t.TempDir(), "out.mp4"), 1.0, "h264", true, config.Advanced{}, cancel)
	if res.Status != ResultCancelled {
		t.Errorf("Status = %v, want ResultCancelled", res.Status)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want no retries after cancellation", attempts)
	}
}

func TestAutoCompressCancelledBeatsOversized(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	cancel := ffmpeg.NewCancel()

	tier := 0
	auto := testAuto(t, func(res int, useGPU bool, output string) Outcome {
		tier++
		if tier == 1 {
			// First tier produces an oversized file
			writeSized(t, output, 5)
			return OutcomeOK
		}
		cancel.Stop()
		return OutcomeCancelled
	})

	res := auto.Run("in.mp4", out, 1.0, "h264", false, config.Advanced{}, cancel)
	if res.Status != ResultCancelled {
		t.Errorf("Status = %v, want ResultCancelled even with an oversized file on disk", res.Status)
	}
}
