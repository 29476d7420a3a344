package encoder

import (
	"path/filepath"
	"strings"

	"vidcrush/ffmpeg"
)

// audioOnlyExtensions marks outputs that should drop the video stream.
var audioOnlyExtensions = []string{".mp3", ".wav", ".flac", ".aac", ".opus", ".ogg", ".m4a"}

func isAudioOutput(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range audioOnlyExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Converter does 1:1 conversions without bitrate targeting.
type Converter struct {
	Runner *ffmpeg.Runner
	Probe  *ffmpeg.Probe
	Logf   func(format string, args ...any)
	// OnProgress receives the completed fraction; may be nil. No progress
	// is reported when the input duration cannot be read.
	OnProgress func(pct float64)
}

func NewConverter(r *ffmpeg.Runner, logf func(string, ...any)) *Converter {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Converter{Runner: r, Probe: &ffmpeg.Probe{Runner: r}, Logf: logf}
}

// Run converts input to output using the given codec names; an empty codec
// means stream copy. Audio-format output extensions get -vn.
func (c *Converter) Run(input, output, vcodec, acodec string, cancel *ffmpeg.Cancel) bool {
	duration, _ := c.Probe.Duration(input)

	if vcodec == "" {
		vcodec = "copy"
	}
	if acodec == "" {
		acodec = "copy"
	}

	args := []string{"-y", "-i", input}
	if isAudioOutput(output) {
		args = append(args, "-vn", "-c:a", acodec)
	} else {
		args = append(args, "-c:v", vcodec, "-c:a", acodec)
	}
	args = append(args, output)

	c.Logf("converting %s -> %s", input, output)

	result := c.Runner.Stream("ffmpeg", args, cancel, func(line string) {
		secs, ok := ffmpeg.ParseTime(line)
		if !ok || duration <= 0 {
			return
		}
		pct := secs / duration
		if pct > 1 {
			pct = 1
		}
		if c.OnProgress != nil {
			c.OnProgress(pct)
		}
	})

	switch result.Status {
	case ffmpeg.StatusOK:
		return true
	case ffmpeg.StatusCancelled:
		c.Logf("stopped by user")
		return false
	default:
		c.Logf("conversion failed with exit code %d", result.ExitCode)
		if len(result.Tail) > 0 {
			c.Logf("last output:\n%s", strings.Join(result.Tail, "\n"))
		}
		return false
	}
}
