package ffmpeg

import (
	"strconv"
	"strings"
	"time"
)

// Probe answers questions about media files via ffprobe.
type Probe struct {
	Runner *Runner
}

// Duration returns the container duration in seconds. The bool is false
// when the file has no parseable duration (corrupt input, still image,
// ffprobe missing), which callers treat as "unknown", not zero.
func (p *Probe) Duration(path string) (float64, bool) {
	out, err := p.Runner.Capture("ffprobe", []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}, 15*time.Second)
	if err != nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return secs, true
}

// Installed reports whether ffmpeg is on PATH and responds.
func (p *Probe) Installed() bool {
	_, err := p.Runner.Capture("ffmpeg", []string{"-version"}, 2*time.Second)
	return err == nil
}
