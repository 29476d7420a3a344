package encoder

import (
	"strings"
	"testing"

	"vidcrush/config"
	"vidcrush/ffmpeg"
)

func argsContain(args []string, sub ...string) bool {
	joined := " " + strings.Join(args, " ") + " "
	return strings.Contains(joined, " "+strings.Join(sub, " ")+" ")
}

func TestEncoderArgsH261Frozen(t *testing.T) {
	a := NewAttempt(ffmpeg.NewRunner(), nil)
	adv := config.Advanced{Keyframe: "240", CPUUsed: 2}

	args := a.encoderArgs("h261", "h261", 1164, adv)
	want := []string{"-c:v", "h261", "-b:v", "64k", "-r", "30000/1001"}
	if len(args) != len(want) {
		t.Fatalf("h261 args = %v, want frozen set %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("h261 args = %v, want frozen set %v", args, want)
		}
	}
}

func TestEncoderArgsSvtAv1(t *testing.T) {
	a := NewAttempt(ffmpeg.NewRunner(), nil)
	adv := config.Advanced{CPUUsed: 4, AdaptiveQuant: true}

	args := a.encoderArgs("libsvtav1", "av1", 900, adv)
	if !argsContain(args, "-preset", "8") {
		t.Errorf("libsvtav1 args = %v, want -preset 8 (cpu-used 4 + 4)", args)
	}
	if !argsContain(args, "-svtav1-params", "enable-variance-boost=1") {
		t.Errorf("libsvtav1 args = %v, want variance boost with AQ", args)
	}
	if !argsContain(args, "-b:v", "900k") {
		t.Errorf("libsvtav1 args = %v, want -b:v 900k", args)
	}
}

func TestEncoderArgsLibaom(t *testing.T) {
	a := NewAttempt(ffmpeg.NewRunner(), nil)
	adv := config.Advanced{CPUUsed: 6, AdaptiveQuant: true}

	args := a.encoderArgs("libaom-av1", "av1", 900, adv)
	if !argsContain(args, "-cpu-used", "6") || !argsContain(args, "-tile-columns", "2") {
		t.Errorf("libaom args = %v, want cpu-used and tile-columns", args)
	}
	if !argsContain(args, "-aq-mode", "3") {
		t.Errorf("libaom args = %v, want -aq-mode 3 with AQ", args)
	}
}

func TestEncoderArgsNvenc(t *testing.T) {
	a := NewAttempt(ffmpeg.NewRunner(), nil)
	args := a.encoderArgs("h264_nvenc", "h264", 1164, config.Advanced{})
	if !argsContain(args, "-preset", "p7") || !argsContain(args, "-tune", "hq") {
		t.Errorf("nvenc args = %v, want -preset p7 -tune hq", args)
	}
}

func TestEncoderArgsKeyframe(t *testing.T) {
	a := NewAttempt(ffmpeg.NewRunner(), nil)
	args := a.encoderArgs("libx264", "h264", 1164, config.Advanced{Keyframe: "300"})
	if !argsContain(args, "-g", "300") {
		t.Errorf("args = %v, want -g 300", args)
	}
}

func TestAudioArgs(t *testing.T) {
	a := NewAttempt(ffmpeg.NewRunner(), nil)

	args := a.audioArgs("h264", config.Advanced{})
	if !argsContain(args, "-c:a", "aac") || !argsContain(args, "-b:a", "64k") {
		t.Errorf("default audio args = %v, want aac 64k", args)
	}

	// AV1 outputs get Opus
	args = a.audioArgs("av1", config.Advanced{})
	if !argsContain(args, "-c:a", "libopus") || !argsContain(args, "-frame_duration", "60") {
		t.Errorf("av1 audio args = %v, want libopus", args)
	}

	// Explicit override wins over the codec default
	args = a.audioArgs("av1", config.Advanced{AudioCodec: "aac"})
	if !argsContain(args, "-c:a", "aac") {
		t.Errorf("override audio args = %v, want aac", args)
	}
}

func TestAudioArgsFilters(t *testing.T) {
	a := NewAttempt(ffmpeg.NewRunner(), nil)

	args := a.audioArgs("h264", config.Advanced{AudioHighpassHz: 80, AudioLowpassHz: 12000})
	if !argsContain(args, "-af", "highpass=f=80,lowpass=f=12000") {
		t.Errorf("audio filter args = %v", args)
	}

	args = a.audioArgs("h264", config.Advanced{AudioHighpassHz: 80})
	if !argsContain(args, "-af", "highpass=f=80") {
		t.Errorf("highpass-only args = %v", args)
	}
}

func TestOutputArgs(t *testing.T) {
	args := outputArgs(config.Advanced{})
	if len(args) != 0 {
		t.Errorf("outputArgs zero value = %v, want empty", args)
	}

	args = outputArgs(config.Advanced{StripMetadata: true, Title: "My Clip", Author: "me"})
	if !argsContain(args, "-map_metadata", "-1") {
		t.Errorf("args = %v, want metadata stripped", args)
	}
	if !argsContain(args, "-metadata", "title=My Clip") || !argsContain(args, "-metadata", "artist=me") {
		t.Errorf("args = %v, want title and artist tags", args)
	}
}

func TestAttemptCancelledBeforeStart(t *testing.T) {
	a := NewAttempt(ffmpeg.NewRunner(), nil)
	cancel := ffmpeg.NewCancel()
	cancel.Stop()

	if out := a.Run("in.mp4", "out.mp4", 10, 720, "h264", false, config.Advanced{}, cancel); out != OutcomeCancelled {
		t.Errorf("Run with pre-set cancel = %v, want OutcomeCancelled", out)
	}
}

func TestProgressMapping(t *testing.T) {
	a := NewAttempt(ffmpeg.NewRunner(), nil)
	var got Progress
	a.OnProgress = func(p Progress) { got = p }

	sample := ffmpeg.ProgressSample{FPS: 60, Seconds: 30, Speed: 2}

	// Single pass maps straight to 0..1
	a.report(720, 0, 60, sample)
	if got.Pct != 0.5 {
		t.Errorf("single-pass pct = %v, want 0.5", got.Pct)
	}

	// Pass 1 covers the first half of the bar
	a.report(720, 1, 60, sample)
	if got.Pct != 0.25 {
		t.Errorf("pass-1 pct = %v, want 0.25", got.Pct)
	}

	// Pass 2 covers the second half
	a.report(720, 2, 60, sample)
	if got.Pct != 0.75 {
		t.Errorf("pass-2 pct = %v, want 0.75", got.Pct)
	}

	// Remaining time accounts for encode speed: (60-30)/2 = 15s
	if got.Remaining != "00:00:15" {
		t.Errorf("Remaining = %q, want 00:00:15", got.Remaining)
	}

	// Position past the end clamps
	a.report(720, 0, 60, ffmpeg.ProgressSample{FPS: 60, Seconds: 90, Speed: 2})
	if got.Pct != 1.0 {
		t.Errorf("clamped pct = %v, want 1.0", got.Pct)
	}
}
