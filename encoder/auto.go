package encoder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vidcrush/config"
	"vidcrush/ffmpeg"
)

// ResultStatus classifies the end state of an auto-compress run. Oversized
// is distinct from Failed: encoding worked, the file just never fit inside
// the target at any resolution.
type ResultStatus int

const (
	ResultSuccess ResultStatus = iota
	ResultOversized
	ResultFailed
	ResultCancelled
)

// Result is the outcome of a full auto-compress run. SizeMB is the final
// file size for Success, or the smallest size achieved for Oversized.
type Result struct {
	Status ResultStatus
	Path   string
	SizeMB float64
}

// resolutionLadder is walked top-down until an attempt fits the target.
var resolutionLadder = []int{1440, 1080, 720, 480, 360}

// legacyCodecs cannot live inside MP4; their output is forced to MKV.
var legacyCodecs = []string{
	"libxvid", "msmpeg4v2", "flv1", "h261", "h263",
	"snow", "cinepak", "roq", "smc", "vc1",
}

func isLegacyCodec(codec string) bool {
	for _, c := range legacyCodecs {
		if codec == c {
			return true
		}
	}
	return false
}

// NormalizeOutputPath fills in a default output name and rewrites the
// container extension for codecs MP4 cannot hold. Idempotent: a path that
// already satisfies the rules comes back unchanged.
func NormalizeOutputPath(input, output, codec string) string {
	if output == "" {
		ext := ".mp4"
		if isLegacyCodec(codec) {
			ext = ".mkv"
		}
		base := filepath.Base(input)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		return fmt.Sprintf("compressed_%s_%s%s", codec, base, ext)
	}
	if isLegacyCodec(codec) && strings.EqualFold(filepath.Ext(output), ".mp4") {
		return strings.TrimSuffix(output, filepath.Ext(output)) + ".mkv"
	}
	return output
}

// AutoCompressor walks the resolution ladder until an attempt produces a
// file under the target size, retrying each tier in software when a GPU
// attempt fails.
type AutoCompressor struct {
	Attempt *Attempt
	Logf    func(format string, args ...any)

	// run is the per-tier attempt, replaceable in tests.
	run func(input, output string, targetMB float64, res int, codec string, useGPU bool, adv config.Advanced, cancel *ffmpeg.Cancel) Outcome
}

func NewAutoCompressor(att *Attempt) *AutoCompressor {
	return &AutoCompressor{
		Attempt: att,
		Logf:    att.Logf,
		run:     att.Run,
	}
}

// Run compresses input toward targetMB. The returned Result's Path is the
// normalized output path whenever a file was produced.
func (c *AutoCompressor) Run(input, output string, targetMB float64, codec string, useGPU bool, adv config.Advanced, cancel *ffmpeg.Cancel) Result {
	normalized := NormalizeOutputPath(input, output, codec)
	if normalized != output && output != "" {
		c.Logf("%s is incompatible with MP4, forcing MKV container", codec)
	}
	output = normalized

	defer c.cleanupPreview()

	bestSize := 0.0
	produced := false

	for _, res := range resolutionLadder {
		if cancel.Stopped() {
			return c.endState(ResultCancelled, output, bestSize, produced)
		}

		outcome := c.run(input, output, targetMB, res, codec, useGPU, adv, cancel)
		if outcome == OutcomeFailed && useGPU && !cancel.Stopped() {
			c.Logf("GPU attempt failed at %dp, retrying with software", res)
			outcome = c.run(input, output, targetMB, res, codec, false, adv, cancel)
		}

		switch outcome {
		case OutcomeCancelled:
			return c.endState(ResultCancelled, output, bestSize, produced)
		case OutcomeFailed:
			c.Logf("encoding failed at %dp, skipping", res)
			continue
		}

		size, ok := fileSizeMB(output)
		if !ok {
			c.Logf("encoding failed at %dp, skipping", res)
			continue
		}
		if size <= targetMB {
			c.Logf("success: %s (%.2f MB)", output, size)
			return Result{Status: ResultSuccess, Path: output, SizeMB: size}
		}

		produced = true
		if bestSize == 0 || size < bestSize {
			bestSize = size
		}
		c.Logf("result too large (%.2f MB), trying lower resolution", size)
	}

	return c.endState(ResultFailed, output, bestSize, produced)
}

// endState separates "every tier ran but the file never fit" from "nothing
// encodable was produced at all".
func (c *AutoCompressor) endState(fallback ResultStatus, output string, bestSize float64, produced bool) Result {
	if fallback != ResultCancelled && produced {
		return Result{Status: ResultOversized, Path: output, SizeMB: bestSize}
	}
	return Result{Status: fallback}
}

func (c *AutoCompressor) cleanupPreview() {
	if c.Attempt != nil {
		c.Attempt.removePreviewFile()
	}
}

func fileSizeMB(path string) (float64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return float64(info.Size()) / 1048576.0, true
}
