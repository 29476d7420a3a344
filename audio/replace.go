package audio

import (
	"fmt"
	"os"
	"strings"

	"vidcrush/ffmpeg"
)

// Replacer swaps or processes a file's audio track with the video copied
// untouched.
type Replacer struct {
	Runner *ffmpeg.Runner
	Probe  *ffmpeg.Probe
	Logf   func(format string, args ...any)
}

func NewReplacer(r *ffmpeg.Runner, logf func(string, ...any)) *Replacer {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Replacer{Runner: r, Probe: &ffmpeg.Probe{Runner: r}, Logf: logf}
}

// Replace swaps the video's audio track for audioPath. With loop set, audio
// shorter than the video is looped to fill the full length; if the video's
// duration cannot be read, looping quietly downgrades to -shortest.
func (p *Replacer) Replace(videoPath, audioPath, output string, loop bool, cancel *ffmpeg.Cancel) error {
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video file not found: %s", videoPath)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("audio file not found: %s", audioPath)
	}

	var videoDur float64
	if loop {
		var ok bool
		videoDur, ok = p.Probe.Duration(videoPath)
		if !ok {
			p.Logf("could not detect video duration, falling back to -shortest")
			loop = false
		}
	}

	var args []string
	if loop {
		args = []string{
			"-y",
			"-i", videoPath,
			"-stream_loop", "-1", "-i", audioPath,
			"-c:v", "copy",
			"-map", "0:v:0", "-map", "1:a:0",
			"-t", fmt.Sprintf("%g", videoDur),
			"-c:a", "aac", "-b:a", "192k",
			output,
		}
	} else {
		args = []string{
			"-y",
			"-i", videoPath, "-i", audioPath,
			"-c:v", "copy",
			"-map", "0:v:0", "-map", "1:a:0",
			"-shortest",
			output,
		}
	}

	p.Logf("replacing audio track of %s", videoPath)
	return p.runToCompletion(args, cancel, "audio replacement")
}

// Normalize runs single-pass loudness normalization toward targetLUFS.
// -14 LUFS is the usual web/streaming target.
func (p *Replacer) Normalize(input, output string, targetLUFS float64, cancel *ffmpeg.Cancel) error {
	args := []string{
		"-y", "-i", input,
		"-c:v", "copy",
		"-af", fmt.Sprintf("loudnorm=I=%g:TP=-1.5:LRA=11", targetLUFS),
		"-c:a", "aac", "-b:a", "192k",
		output,
	}
	p.Logf("normalizing loudness to %g LUFS", targetLUFS)
	return p.runToCompletion(args, cancel, "normalization")
}

func (p *Replacer) runToCompletion(args []string, cancel *ffmpeg.Cancel, what string) error {
	result := p.Runner.Stream("ffmpeg", args, cancel, func(line string) {
		p.Logf("%s", line)
	})
	switch result.Status {
	case ffmpeg.StatusOK:
		return nil
	case ffmpeg.StatusCancelled:
		return fmt.Errorf("cancelled")
	default:
		if len(result.Tail) > 0 {
			return fmt.Errorf("ffmpeg failed during %s: %s", what, strings.Join(result.Tail, "\n"))
		}
		return fmt.Errorf("ffmpeg failed during %s with exit code %d", what, result.ExitCode)
	}
}
