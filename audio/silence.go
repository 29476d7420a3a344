package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"vidcrush/ffmpeg"
)

// Interval is a half-open [Start, End) span in seconds.
type Interval struct {
	Start, End float64
}

// minKeepSeconds filters out micro-fragments between adjacent silences; a
// kept span shorter than this produces audible clicks after the cut.
const minKeepSeconds = 0.1

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*([\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*([\d.]+)`)
)

// ParseSilence scrapes silencedetect output into silence intervals. A
// trailing silence_start with no matching end is closed at the total
// duration, since silence running to EOF never emits silence_end.
func ParseSilence(log string, totalDuration float64) []Interval {
	var periods []Interval
	pendingStart := -1.0
	for _, line := range strings.Split(log, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				pendingStart = v
			}
			continue
		}
		if pendingStart < 0 {
			continue
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > pendingStart {
				periods = append(periods, Interval{Start: pendingStart, End: v})
			}
			pendingStart = -1
		}
	}
	if pendingStart >= 0 {
		periods = append(periods, Interval{Start: pendingStart, End: totalDuration})
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Start < periods[j].Start })
	return periods
}

// KeepIntervals computes the complement of the silence intervals over
// [0, totalDuration), dropping spans shorter than minKeepSeconds.
func KeepIntervals(silence []Interval, totalDuration float64) []Interval {
	var keep []Interval
	cursor := 0.0
	for _, s := range silence {
		if s.Start > cursor+minKeepSeconds {
			keep = append(keep, Interval{Start: cursor, End: s.Start})
		}
		if s.End > cursor {
			cursor = s.End
		}
	}
	if cursor < totalDuration-minKeepSeconds {
		keep = append(keep, Interval{Start: cursor, End: totalDuration})
	}
	return keep
}

// Remover cuts silent sections out of a file by extracting the audible
// segments with stream copy and concatenating them.
type Remover struct {
	Runner *ffmpeg.Runner
	Probe  *ffmpeg.Probe
	Logf   func(format string, args ...any)

	// duration and detect are the probe and analysis steps, replaceable in
	// tests.
	duration func(input string) (float64, bool)
	detect   func(input string, dbThreshold, minDuration float64, cancel *ffmpeg.Cancel) (string, error)
}

func NewRemover(r *ffmpeg.Runner, logf func(string, ...any)) *Remover {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	rem := &Remover{Runner: r, Probe: &ffmpeg.Probe{Runner: r}, Logf: logf}
	rem.duration = rem.Probe.Duration
	rem.detect = rem.detectSilence
	return rem
}

// detectSilence streams the analysis run, collecting every output line.
// There is no timeout: analysis decodes the whole file and takes as long
// as the file demands, with the cancel flag as the escape hatch. A failed
// run is an error, never mistaken for a clean no-silence log.
func (r *Remover) detectSilence(input string, dbThreshold, minDuration float64, cancel *ffmpeg.Cancel) (string, error) {
	var log strings.Builder
	result := r.Runner.Stream("ffmpeg", []string{
		"-hide_banner", "-i", input,
		"-af", fmt.Sprintf("silencedetect=noise=%gdB:d=%g", dbThreshold, minDuration),
		"-f", "null", "-",
	}, cancel, func(line string) {
		log.WriteString(line)
		log.WriteByte('\n')
	})
	switch result.Status {
	case ffmpeg.StatusCancelled:
		return "", fmt.Errorf("cancelled")
	case ffmpeg.StatusFailed:
		if len(result.Tail) > 0 {
			return "", fmt.Errorf("analysis exited with code %d: %s", result.ExitCode, result.Tail[len(result.Tail)-1])
		}
		return "", fmt.Errorf("analysis exited with code %d", result.ExitCode)
	}
	return log.String(), nil
}

// Run removes silence below dbThreshold lasting at least minDuration
// seconds. A file with no detectable silence is copied through unchanged;
// a file that is entirely silence is an error, never an empty output.
func (r *Remover) Run(input, output string, dbThreshold float64, minDuration float64, cancel *ffmpeg.Cancel) error {
	totalDuration, ok := r.duration(input)
	if !ok {
		return fmt.Errorf("could not determine duration of %s", input)
	}

	r.Logf("detecting silence (threshold %gdB, min duration %gs)", dbThreshold, minDuration)

	detectLog, err := r.detect(input, dbThreshold, minDuration, cancel)
	if err != nil {
		return fmt.Errorf("silence detection failed: %w", err)
	}

	silence := ParseSilence(detectLog, totalDuration)
	if len(silence) == 0 {
		r.Logf("no silence detected matching the given criteria, copying file")
		return copyFile(input, output)
	}

	for i, s := range silence {
		if i >= 10 {
			r.Logf("  ... and %d more", len(silence)-10)
			break
		}
		r.Logf("  silence %d: %.2fs -> %.2fs", i+1, s.Start, s.End)
	}

	keep := KeepIntervals(silence, totalDuration)
	if len(keep) == 0 {
		return fmt.Errorf("nothing left after removing all silence, output would be empty")
	}
	r.Logf("  keeping %d segment(s)", len(keep))

	tmpDir, err := os.MkdirTemp("", "silence_cut_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	segExt := filepath.Ext(output)
	if segExt == "" {
		segExt = ".mp4"
	}

	var segments []string
	for i, seg := range keep {
		if cancel.Stopped() {
			return fmt.Errorf("cancelled")
		}
		segPath := filepath.Join(tmpDir, fmt.Sprintf("keep_%04d%s", i, segExt))
		segments = append(segments, segPath)

		r.Logf("  extracting segment %d/%d (%.2fs -> %.2fs)", i+1, len(keep), seg.Start, seg.End)
		result := r.Runner.Stream("ffmpeg", []string{
			"-y",
			"-ss", fmt.Sprintf("%.6f", seg.Start),
			"-to", fmt.Sprintf("%.6f", seg.End),
			"-i", input,
			"-c", "copy",
			"-avoid_negative_ts", "make_zero",
			segPath,
		}, cancel, nil)
		if result.Status == ffmpeg.StatusCancelled {
			return fmt.Errorf("cancelled")
		}
		if result.Status == ffmpeg.StatusFailed {
			r.Logf("  segment %d had extraction issues", i+1)
		}
	}

	if len(segments) == 1 {
		return moveFile(segments[0], output)
	}

	listPath := filepath.Join(tmpDir, "concat_list.txt")
	var list strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&list, "file '%s'\n", seg)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return err
	}

	r.Logf("  concatenating %d segment(s)", len(segments))
	result := r.Runner.Stream("ffmpeg", []string{
		"-y", "-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	}, cancel, nil)
	switch result.Status {
	case ffmpeg.StatusCancelled:
		return fmt.Errorf("cancelled")
	case ffmpeg.StatusFailed:
		if len(result.Tail) > 0 {
			return fmt.Errorf("concat failed: %s", result.Tail[len(result.Tail)-1])
		}
		return fmt.Errorf("concat failed with exit code %d", result.ExitCode)
	}

	r.Logf("done, saved to %s", filepath.Base(output))
	return nil
}

// moveFile prefers rename and falls back to copy+remove for cross-device
// targets, since the temp dir may live on another filesystem.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
