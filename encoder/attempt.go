package encoder

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"vidcrush/config"
	"vidcrush/ffmpeg"
)

// Outcome is the result of a single compression attempt.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeFailed
	OutcomeCancelled
)

// Progress is one progress sample forwarded to the UI.
type Progress struct {
	Resolution int
	Pass       int // 0 single pass, 1 or 2 for two-pass
	Pct        float64
	FPS        float64
	Speed      float64
	Remaining  string // HH:MM:SS for the current pass
}

// legacyEncoderTags marks encoders whose formats need -strict -2 and cannot
// do two-pass rate control. Matched by substring like IsHardware.
var legacyEncoderTags = []string{
	"h261", "h263", "roqvideo", "snow", "cinepak",
	"msmpeg4v2", "libxvid", "flv", "smc", "wmv3",
}

func isLegacyEncoder(enc string) bool {
	for _, tag := range legacyEncoderTags {
		if strings.Contains(enc, tag) {
			return true
		}
	}
	return false
}

// Attempt runs one encode at a fixed resolution tier. The controller above
// it owns retries and the resolution ladder.
type Attempt struct {
	Runner  *ffmpeg.Runner
	Probe   *ffmpeg.Probe
	Catalog *Catalog

	// Logf receives human-readable status lines; never nil after New.
	Logf func(format string, args ...any)
	// OnProgress receives parsed progress samples; may be nil.
	OnProgress func(Progress)
	// PreviewPath, when set, names a JPEG a side-process keeps overwriting
	// with the most recent source frame while the encode runs.
	PreviewPath string
}

func NewAttempt(r *ffmpeg.Runner, logf func(string, ...any)) *Attempt {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Attempt{
		Runner:  r,
		Probe:   &ffmpeg.Probe{Runner: r},
		Catalog: NewCatalog(r),
		Logf:    logf,
	}
}

// Run encodes input to output targeting targetMB at the given resolution
// tier. It succeeds when every pass exits cleanly; checking the resulting
// file size against the target is the caller's job.
func (a *Attempt) Run(input, output string, targetMB float64, res int, codec string, useGPU bool, adv config.Advanced, cancel *ffmpeg.Cancel) Outcome {
	if cancel.Stopped() {
		return OutcomeCancelled
	}

	duration, ok := a.Probe.Duration(input)
	if !ok {
		a.Logf("error: cannot read duration of %s", input)
		return OutcomeFailed
	}

	kbps := TargetKbps(targetMB, duration)

	enc, ok := a.Catalog.Resolve(codec, useGPU)
	if !ok {
		a.Logf("error: no encoder found for %s", codec)
		return OutcomeFailed
	}
	if useGPU && !IsHardware(enc) {
		a.Logf("GPU encoder for %s requested but no compatible hardware found, using software", codec)
	}

	res, kbps = ApplyLegacyCaps(enc, res, kbps)

	mode := "software"
	if useGPU && IsHardware(enc) {
		mode = "GPU"
	}
	a.Logf("encoding: %s (%s) | %dp | target %d kbps", enc, mode, res, kbps)

	var hwInit []string
	if strings.Contains(enc, "vaapi") {
		hwInit = []string{"-vaapi_device", "/dev/dri/renderD128"}
	}

	vFilter := BuildFilter(enc, res, adv)
	encArgs := a.encoderArgs(enc, codec, kbps, adv)
	audioArgs := a.audioArgs(codec, adv)
	outArgs := outputArgs(adv)

	legacy := isLegacyEncoder(enc)
	if legacy {
		encArgs = append(encArgs, "-strict", "-2")
	}

	preview := a.startPreview(input)
	defer ffmpeg.Terminate(preview)

	// Legacy encoders choke on two-pass logs, so they always run one pass.
	passes := []int{0}
	if adv.TwoPass && !legacy {
		passes = []int{1, 2}
	}

	for _, pass := range passes {
		if cancel.Stopped() {
			a.removePreviewFile()
			return OutcomeCancelled
		}

		args := append([]string{"-y", "-hide_banner", "-stats"}, hwInit...)
		args = append(args, "-i", input, "-vf", vFilter)
		args = append(args, encArgs...)
		switch pass {
		case 0:
			a.Logf("encoding...")
			args = append(args, audioArgs...)
			args = append(args, outArgs...)
			args = append(args, output)
		case 1:
			a.Logf("starting pass 1...")
			args = append(args, "-pass", "1", "-an", "-f", "null", os.DevNull)
		case 2:
			a.Logf("starting pass 2...")
			args = append(args, "-pass", "2")
			args = append(args, audioArgs...)
			args = append(args, outArgs...)
			args = append(args, output)
		}

		result := a.Runner.Stream("ffmpeg", args, cancel, func(line string) {
			sample, ok := ffmpeg.ParseProgress(line)
			if !ok {
				return
			}
			a.report(res, pass, duration, sample)
		})

		switch result.Status {
		case ffmpeg.StatusCancelled:
			a.Logf("stopped by user")
			a.removePreviewFile()
			return OutcomeCancelled
		case ffmpeg.StatusFailed:
			a.Logf("ffmpeg failed during pass %d with exit code %d", pass, result.ExitCode)
			if len(result.Tail) > 0 {
				a.Logf("last output:\n%s", strings.Join(result.Tail, "\n"))
			}
			return OutcomeFailed
		}
	}

	return OutcomeOK
}

func (a *Attempt) report(res, pass int, duration float64, s ffmpeg.ProgressSample) {
	if a.OnProgress == nil {
		return
	}
	var pct float64
	if duration > 0 {
		frac := s.Seconds / duration
		if frac > 1 {
			frac = 1
		}
		if pass == 0 {
			pct = frac
		} else {
			// Each pass covers half the bar.
			base := 0.0
			if pass == 2 {
				base = 0.5
			}
			pct = base + frac*0.5
		}
	}
	remaining := "00:00:00"
	if s.Speed > 0 && duration > s.Seconds {
		rem := int((duration - s.Seconds) / s.Speed)
		remaining = fmt.Sprintf("%02d:%02d:%02d", rem/3600, rem/60%60, rem%60)
	}
	a.OnProgress(Progress{
		Resolution: res,
		Pass:       pass,
		Pct:        pct,
		FPS:        s.FPS,
		Speed:      s.Speed,
		Remaining:  remaining,
	})
}

// encoderArgs builds the -c:v block plus per-encoder tuning. H.261 gets a
// frozen argument set since anything beyond 64k at 29.97 makes it fail.
func (a *Attempt) encoderArgs(enc, codec string, kbps int, adv config.Advanced) []string {
	if enc == "h261" {
		return []string{"-c:v", "h261", "-b:v", "64k", "-r", "30000/1001"}
	}

	args := []string{"-c:v", enc, "-b:v", fmt.Sprintf("%dk", kbps)}

	if adv.Keyframe != "" {
		args = append(args, "-g", adv.Keyframe)
	}

	cpu := adv.CPUUsed
	switch {
	case enc == "libsvtav1":
		args = append(args, "-preset", strconv.Itoa(cpu+4))
		if adv.AdaptiveQuant {
			args = append(args, "-svtav1-params", "enable-variance-boost=1")
		}
	case enc == "libvvenc":
		args = append(args, "-preset", "faster")
	case codec == "av1" && strings.Contains(enc, "libaom"):
		args = append(args, "-cpu-used", strconv.Itoa(cpu), "-tile-columns", "2")
		if adv.AdaptiveQuant {
			args = append(args, "-aq-mode", "3")
		}
	}

	if strings.Contains(enc, "nvenc") {
		args = append(args, "-preset", "p7", "-tune", "hq")
	}

	return args
}

// audioArgs picks the audio encoding block. AV1 outputs get Opus, which
// beats AAC at these rates; everything else gets compatible low-rate AAC.
func (a *Attempt) audioArgs(codec string, adv config.Advanced) []string {
	var args []string
	switch {
	case adv.AudioCodec != "":
		args = []string{"-c:a", adv.AudioCodec, "-b:a", "64k"}
	case codec == "av1":
		args = []string{"-c:a", "libopus", "-b:a", "48k", "-vbr", "on", "-frame_duration", "60"}
	default:
		args = []string{"-c:a", "aac", "-b:a", "64k"}
	}

	var af []string
	if adv.AudioHighpassHz > 0 {
		af = append(af, fmt.Sprintf("highpass=f=%d", adv.AudioHighpassHz))
	}
	if adv.AudioLowpassHz > 0 {
		af = append(af, fmt.Sprintf("lowpass=f=%d", adv.AudioLowpassHz))
	}
	if len(af) > 0 {
		args = append(args, "-af", strings.Join(af, ","))
	}
	return args
}

// outputArgs holds the container-level extras: metadata stripping or tags.
func outputArgs(adv config.Advanced) []string {
	var args []string
	if adv.StripMetadata {
		args = append(args, "-map_metadata", "-1")
	}
	if adv.Title != "" {
		args = append(args, "-metadata", "title="+adv.Title)
	}
	if adv.Author != "" {
		args = append(args, "-metadata", "artist="+adv.Author)
	}
	return args
}

// startPreview launches the frame-grab side-process. Best effort: a preview
// that fails to start never fails the encode.
func (a *Attempt) startPreview(input string) *exec.Cmd {
	if a.PreviewPath == "" {
		return nil
	}
	cmd, err := a.Runner.Begin("ffmpeg", []string{
		"-y", "-hide_banner", "-loglevel", "error", "-i", input,
		"-vf", "fps=1,scale=480:-1", "-update", "1", "-q:v", "2", a.PreviewPath,
	})
	if err != nil {
		a.Logf("preview generator failed to start: %v", err)
		return nil
	}
	return cmd
}

func (a *Attempt) removePreviewFile() {
	if a.PreviewPath != "" {
		_ = os.Remove(a.PreviewPath)
	}
}
