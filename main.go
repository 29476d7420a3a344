package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"vidcrush/audio"
	"vidcrush/config"
	"vidcrush/encoder"
	"vidcrush/ffmpeg"
	"vidcrush/tui"
)

func main() {
	// Mode selection
	mode := flag.String("mode", "compress", "Operation: compress, convert, merge, replace-audio, normalize, remove-silence")

	// Shared flags
	output := flag.String("o", "", "Output file (compress: auto-named when empty)")
	noTUI := flag.Bool("no-tui", false, "Run compression headlessly, printing progress to stdout")

	// Compression flags
	target := flag.Float64("target", 10, "Target output size in MB")
	codec := flag.String("codec", "h264", "Video codec family (h264, h265, av1, vp9, ...) or a raw encoder name")
	gpu := flag.Bool("gpu", true, "Prefer GPU encoders, falling back to software")
	profileFlag := flag.String("profile", "default", "Encoding profile: default, quality, fast, archive")
	listProfiles := flag.Bool("list-profiles", false, "List all available profiles and exit")
	listEncoders := flag.Bool("list-encoders", false, "List the video encoders this ffmpeg build supports and exit")
	preview := flag.Bool("preview", true, "Generate a live preview frame while compressing (TUI mode)")

	// Advanced overrides on top of the profile
	twoPass := flag.Bool("two-pass", false, "Force two-pass encoding")
	tenBit := flag.Bool("ten-bit", false, "Force 10-bit pixel format")
	denoise := flag.Bool("denoise", false, "Force the denoise filter on")
	cpuUsed := flag.Int("cpu-used", -1, "Encoder speed 0-8 (lower = slower/better), -1 keeps the profile value")
	keyframe := flag.String("keyframe", "", "GOP size (-g)")
	frameRate := flag.String("framerate", "", "Output frame rate override")
	audioCodec := flag.String("audio-codec", "", "Audio encoder override")
	pixFmt := flag.String("pix-fmt", "", "Pixel format override (e.g. yuv422p)")
	highpass := flag.Int("highpass", 0, "Audio highpass filter cutoff in Hz, 0 disables")
	lowpass := flag.Int("lowpass", 0, "Audio lowpass filter cutoff in Hz, 0 disables")
	stripMeta := flag.Bool("strip-metadata", false, "Drop all metadata from the output")
	title := flag.String("title", "", "Title metadata tag")
	author := flag.String("author", "", "Author metadata tag")

	// Convert flags
	vcodec := flag.String("vcodec", "", "Convert mode: video encoder (empty = stream copy)")
	acodec := flag.String("acodec", "", "Convert mode: audio encoder (empty = stream copy)")

	// Audio post-processing flags
	audioFile := flag.String("audio", "", "Replace-audio mode: audio file to mux in")
	loop := flag.Bool("loop", false, "Replace-audio mode: loop audio to fill the video length")
	lufs := flag.Float64("lufs", -14, "Normalize mode: target integrated loudness")
	db := flag.Float64("db", -30, "Remove-silence mode: silence threshold in dB")
	minSilence := flag.Float64("min-silence", 0.5, "Remove-silence mode: minimum silence duration in seconds")

	flag.Usage = func() {
		fmt.Println("Usage: vidcrush [options] <input-file> [more-inputs...]")
		fmt.Println()
		fmt.Println("Compresses video to a target size, or runs one of the other ffmpeg workflows.")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Profiles:")
		for _, p := range config.AvailableProfiles() {
			fmt.Printf("  %-10s %s\n", p, config.ProfileDescription(p))
		}
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  vidcrush -target=10 video.mp4                          # 10MB h264")
		fmt.Println("  vidcrush -target=25 -codec=av1 -profile=quality in.mkv")
		fmt.Println("  vidcrush -mode=merge -o=joined.mp4 a.mp4 b.mp4 c.mp4")
		fmt.Println("  vidcrush -mode=replace-audio -audio=track.mp3 -loop -o=out.mp4 video.mp4")
		fmt.Println("  vidcrush -mode=remove-silence -db=-35 -o=tight.mp4 lecture.mp4")
	}

	flag.Parse()

	runner := ffmpeg.NewRunner()
	probe := &ffmpeg.Probe{Runner: runner}

	if *listProfiles {
		fmt.Println("Available encoding profiles:")
		fmt.Println()
		for _, p := range config.AvailableProfiles() {
			adv := config.GetProfile(p)
			fmt.Printf("  %s\n", p)
			fmt.Printf("    %s\n", config.ProfileDescription(p))
			fmt.Printf("    two-pass: %v, 10-bit: %v, denoise: %v, cpu-used: %d\n",
				adv.TwoPass, adv.TenBit, adv.Denoise, adv.CPUUsed)
			fmt.Println()
		}
		os.Exit(0)
	}

	if !probe.Installed() {
		fmt.Fprintln(os.Stderr, "Error: ffmpeg not found on PATH. Install ffmpeg and ffprobe first.")
		os.Exit(1)
	}

	if *listEncoders {
		for _, e := range encoder.NewCatalog(runner).All() {
			fmt.Println(e)
		}
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}
	input := args[0]
	if _, err := os.Stat(input); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: Input file not found: %s\n", input)
		os.Exit(1)
	}

	cancel := ffmpeg.NewCancel()
	logf := func(format string, a ...any) {
		fmt.Printf(format+"\n", a...)
	}

	switch *mode {
	case "compress":
		adv := resolveAdvanced(*profileFlag, *twoPass, *tenBit, *denoise, *cpuUsed)
		adv = applyOverrides(adv, overrides{
			Keyframe:        *keyframe,
			FrameRate:       *frameRate,
			AudioCodec:      *audioCodec,
			PixelFormat:     *pixFmt,
			AudioHighpassHz: *highpass,
			AudioLowpassHz:  *lowpass,
			StripMetadata:   *stripMeta,
			Title:           *title,
			Author:          *author,
		})

		if *noTUI {
			trapSignals(cancel)
			att := encoder.NewAttempt(runner, logf)
			res := encoder.NewAutoCompressor(att).Run(input, *output, *target, *codec, *gpu, adv, cancel)
			exitForResult(res, *target)
		}

		job := tui.Job{
			Input:    input,
			Output:   *output,
			TargetMB: *target,
			Codec:    *codec,
			UseGPU:   *gpu,
			Advanced: adv,
		}
		if *preview {
			job.PreviewPath = filepath.Join(os.TempDir(), fmt.Sprintf("vidcrush_preview_%d.jpg", os.Getpid()))
		}
		model := tui.NewModel(job, cancel)
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "convert":
		requireOutput(*output)
		trapSignals(cancel)
		conv := encoder.NewConverter(runner, logf)
		conv.OnProgress = func(pct float64) {
			fmt.Printf("progress: %d%%\n", int(pct*100))
		}
		if !conv.Run(input, *output, *vcodec, *acodec, cancel) {
			os.Exit(1)
		}

	case "merge":
		requireOutput(*output)
		trapSignals(cancel)
		if err := encoder.NewMerger(runner, logf).Run(args, *output, *gpu, cancel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "replace-audio":
		requireOutput(*output)
		if *audioFile == "" {
			fmt.Fprintln(os.Stderr, "Error: -audio is required for replace-audio mode")
			os.Exit(1)
		}
		trapSignals(cancel)
		if err := audio.NewReplacer(runner, logf).Replace(input, *audioFile, *output, *loop, cancel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "normalize":
		requireOutput(*output)
		trapSignals(cancel)
		if err := audio.NewReplacer(runner, logf).Normalize(input, *output, *lufs, cancel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "remove-silence":
		requireOutput(*output)
		trapSignals(cancel)
		if err := audio.NewRemover(runner, logf).Run(input, *output, *db, *minSilence, cancel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown mode '%s'\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// resolveAdvanced builds the advanced parameters from the named profile
// plus any explicit flag overrides.
func resolveAdvanced(profileName string, twoPass, tenBit, denoise bool, cpuUsed int) config.Advanced {
	profile := config.Profile(strings.ToLower(profileName))
	valid := false
	for _, p := range config.AvailableProfiles() {
		if p == profile {
			valid = true
			break
		}
	}
	if !valid {
		fmt.Fprintf(os.Stderr, "Error: Unknown profile '%s'\n", profileName)
		fmt.Fprintln(os.Stderr, "Available profiles: default, quality, fast, archive")
		os.Exit(1)
	}

	adv := config.GetProfile(profile)
	if twoPass {
		adv.TwoPass = true
	}
	if tenBit {
		adv.TenBit = true
	}
	if denoise {
		adv.Denoise = true
	}
	if cpuUsed >= 0 && cpuUsed <= 8 {
		adv.CPUUsed = cpuUsed
	}
	return adv
}

// overrides are the pass-through advanced settings that have no profile
// default; flags set them directly.
type overrides struct {
	Keyframe        string
	FrameRate       string
	AudioCodec      string
	PixelFormat     string
	AudioHighpassHz int
	AudioLowpassHz  int
	StripMetadata   bool
	Title           string
	Author          string
}

func applyOverrides(adv config.Advanced, o overrides) config.Advanced {
	adv.Keyframe = o.Keyframe
	adv.FrameRate = o.FrameRate
	adv.AudioCodec = o.AudioCodec
	adv.PixelFormat = o.PixelFormat
	adv.AudioHighpassHz = o.AudioHighpassHz
	adv.AudioLowpassHz = o.AudioLowpassHz
	adv.StripMetadata = o.StripMetadata
	adv.Title = o.Title
	adv.Author = o.Author
	return adv
}

func requireOutput(output string) {
	if output == "" {
		fmt.Fprintln(os.Stderr, "Error: -o is required for this mode")
		os.Exit(1)
	}
}

// trapSignals wires Ctrl-C to the cooperative cancel flag in headless
// modes; a second signal force-exits.
func trapSignals(cancel *ffmpeg.Cancel) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		cancel.Stop()
		<-ch
		os.Exit(1)
	}()
}

func exitForResult(res encoder.Result, targetMB float64) {
	switch res.Status {
	case encoder.ResultSuccess:
		fmt.Printf("done: %s (%.2f MB)\n", res.Path, res.SizeMB)
		os.Exit(0)
	case encoder.ResultOversized:
		fmt.Printf("could not reach %.1f MB; best result %s (%.2f MB)\n", targetMB, res.Path, res.SizeMB)
		os.Exit(2)
	case encoder.ResultCancelled:
		fmt.Println("cancelled")
		os.Exit(130)
	default:
		fmt.Println("compression failed at every resolution")
		os.Exit(1)
	}
}
