package ffmpeg

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// All scraping of ffmpeg's human-readable output lives in this file, so a
// future structured-progress mode only has to replace these functions.
var (
	progressRe = regexp.MustCompile(`fps=\s*([\d.]+).*time=(\d+:\d+:\d+\.\d+).*speed=\s*([\d.]+)x`)
	timeRe     = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}\.\d{2})`)
)

// ProgressSample is one parsed encoder status line: encode fps, position in
// the source (seconds), and the realtime speed multiplier.
type ProgressSample struct {
	FPS     float64
	Seconds float64
	Speed   float64
}

// ParseProgress extracts a ProgressSample from an ffmpeg -stats line.
// Lines that don't carry all of fps/time/speed are not progress lines.
func ParseProgress(line string) (ProgressSample, bool) {
	m := progressRe.FindStringSubmatch(line)
	if len(m) < 4 {
		return ProgressSample{}, false
	}
	fps, _ := strconv.ParseFloat(m[1], 64)
	speed, _ := strconv.ParseFloat(m[3], 64)
	return ProgressSample{
		FPS:     fps,
		Seconds: hmsToSeconds(m[2]),
		Speed:   speed,
	}, true
}

// ParseTime extracts just the time= position from an ffmpeg stderr line.
// Used by operations that don't emit the full fps/speed stats format.
func ParseTime(line string) (float64, bool) {
	m := timeRe.FindStringSubmatch(line)
	if len(m) < 2 {
		return 0, false
	}
	return hmsToSeconds(m[1]), true
}

// hmsToSeconds converts "HH:MM:SS.ms" to seconds. Malformed input yields 0.
func hmsToSeconds(hms string) float64 {
	parts := strings.Split(hms, ":")
	if len(parts) != 3 {
		return 0
	}
	h, err1 := strconv.ParseFloat(parts[0], 64)
	m, err2 := strconv.ParseFloat(parts[1], 64)
	s, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return h*3600 + m*60 + s
}

// ParseEncoderList extracts video encoder names from `ffmpeg -encoders`
// output. The header legend (" V..... = Video") also starts with 'V', so
// lines before the "------" separator are skipped; in the table proper,
// video encoders are the lines whose flags column starts with 'V' and the
// second whitespace-separated token is the encoder's machine name.
func ParseEncoderList(output string) []string {
	seen := make(map[string]bool)
	inTable := false
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inTable {
			inTable = strings.HasPrefix(trimmed, "------")
			continue
		}
		if !strings.HasPrefix(trimmed, "V") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) >= 2 {
			seen[fields[1]] = true
		}
	}
	encoders := make([]string, 0, len(seen))
	for name := range seen {
		encoders = append(encoders, name)
	}
	sort.Strings(encoders)
	return encoders
}

// isProgressNoise reports whether a line is routine per-frame status output
// rather than diagnostic text worth keeping in the failure tail.
func isProgressNoise(line string) bool {
	if progressRe.MatchString(line) {
		return true
	}
	return strings.HasPrefix(line, "frame=") ||
		strings.HasPrefix(line, "size=") ||
		strings.HasPrefix(line, "fps=")
}
