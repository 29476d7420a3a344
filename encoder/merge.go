package encoder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"vidcrush/ffmpeg"
)

// Merger joins multiple videos into one file, re-encoding everything to a
// common geometry so the concat filter never sees mismatched streams.
type Merger struct {
	Runner  *ffmpeg.Runner
	Catalog *Catalog
	Logf    func(format string, args ...any)
}

func NewMerger(r *ffmpeg.Runner, logf func(string, ...any)) *Merger {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Merger{Runner: r, Catalog: NewCatalog(r), Logf: logf}
}

// Run merges the inputs into output. All inputs are normalized to
// 1080p30 with square pixels and stereo 44.1kHz audio before the concat
// filter; a single input degenerates to a plain file copy.
func (m *Merger) Run(inputs []string, output string, useGPU bool, cancel *ffmpeg.Cancel) error {
	if cancel.Stopped() {
		return fmt.Errorf("cancelled")
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no videos to merge")
	}
	if len(inputs) == 1 {
		m.Logf("only one video selected, copying to output")
		return copyFile(inputs[0], output)
	}

	const w, h, fps = 1920, 1080, 30

	var args []string
	var fc strings.Builder
	for i, in := range inputs {
		args = append(args, "-i", in)
		fmt.Fprintf(&fc,
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d,format=yuv420p[v%d];",
			i, w, h, w, h, fps, i)
		fmt.Fprintf(&fc, "[%d:a]aformat=sample_rates=44100:channel_layouts=stereo[a%d];", i, i)
	}
	for i := range inputs {
		fmt.Fprintf(&fc, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&fc, "concat=n=%d:v=1:a=1[outv_raw][outa]", len(inputs))

	enc, ok := m.Catalog.Resolve("h264", useGPU)
	if !ok {
		return fmt.Errorf("no h264 encoder available")
	}

	var hwInit []string
	vMap := "[outv_raw]"
	var encArgs []string
	switch {
	case strings.Contains(enc, "vaapi"):
		hwInit = []string{"-vaapi_device", "/dev/dri/renderD128"}
		fc.WriteString(";[outv_raw]format=nv12,hwupload[outv]")
		vMap = "[outv]"
	case strings.Contains(enc, "nvenc"):
		encArgs = []string{"-preset", "p4", "-rc", "vbr", "-cq", "23"}
	case strings.Contains(enc, "amf"):
		encArgs = []string{"-rc", "vbr_peak", "-peak_bitrate", "5000k"}
	default:
		encArgs = []string{"-preset", "fast", "-crf", "23"}
	}

	cmd := append([]string{"-y", "-hide_banner"}, hwInit...)
	cmd = append(cmd, args...)
	cmd = append(cmd, "-filter_complex", fc.String(), "-map", vMap, "-map", "[outa]", "-c:v", enc)
	cmd = append(cmd, encArgs...)
	cmd = append(cmd, "-c:a", "aac", "-b:a", "192k", "-movflags", "+faststart", output)

	m.Logf("starting merge of %d files", len(inputs))

	result := m.Runner.Stream("ffmpeg", cmd, cancel, func(line string) {
		m.Logf("%s", line)
	})

	switch result.Status {
	case ffmpeg.StatusOK:
		return nil
	case ffmpeg.StatusCancelled:
		return fmt.Errorf("cancelled")
	default:
		if len(result.Tail) > 0 {
			return fmt.Errorf("merge failed: %s", result.Tail[len(result.Tail)-1])
		}
		return fmt.Errorf("merge failed with exit code %d", result.ExitCode)
	}
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
