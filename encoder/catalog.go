package encoder

import (
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"vidcrush/ffmpeg"
)

// Vendor is the detected GPU maker. Detection is best-effort; anything we
// cannot classify is VendorUnknown, which still gets a candidate order.
type Vendor string

const (
	VendorNvidia  Vendor = "nvidia"
	VendorAMD     Vendor = "amd"
	VendorIntel   Vendor = "intel"
	VendorUnknown Vendor = "unknown"
)

// Catalog resolves a codec family name to a concrete ffmpeg encoder. The
// three function fields and OS are seams for tests; NewCatalog wires the
// real ones.
type Catalog struct {
	Runner *ffmpeg.Runner

	// OS is runtime.GOOS unless overridden.
	OS string
	// ListEncoders returns the names of the video encoders this ffmpeg
	// build advertises. The bool is false when the query itself failed.
	ListEncoders func() ([]string, bool)
	// DetectVendor inspects the machine's GPU.
	DetectVendor func() Vendor
}

func NewCatalog(r *ffmpeg.Runner) *Catalog {
	c := &Catalog{Runner: r, OS: runtime.GOOS}
	c.ListEncoders = c.queryEncoders
	c.DetectVendor = c.queryVendor
	return c
}

// hwCandidates gives the ordered hardware encoder preference for one codec
// family. Per-vendor order matters: on Linux, AMD's vaapi path is tried
// before amf because the proprietary amf encoder is unreliable there; on
// other platforms the order is reversed.
type hwCandidates struct {
	nvidia    []string
	amdLinux  []string
	amdOther  []string
	intel     []string
	unknownHW []string
}

var hwTable = map[string]hwCandidates{
	"h264": {
		nvidia:    []string{"h264_nvenc", "h264_vaapi"},
		amdLinux:  []string{"h264_vaapi", "h264_amf"},
		amdOther:  []string{"h264_amf", "h264_vaapi"},
		intel:     []string{"h264_vaapi", "h264_qsv"},
		unknownHW: []string{"h264_nvenc", "h264_amf", "h264_vaapi"},
	},
	"h265": {
		nvidia:    []string{"hevc_nvenc", "hevc_vaapi"},
		amdLinux:  []string{"hevc_vaapi", "hevc_amf"},
		amdOther:  []string{"hevc_amf", "hevc_vaapi"},
		intel:     []string{"hevc_vaapi", "hevc_qsv"},
		unknownHW: []string{"hevc_nvenc", "hevc_amf", "hevc_vaapi"},
	},
	"av1": {
		nvidia:    []string{"av1_nvenc", "av1_vaapi"},
		amdLinux:  []string{"av1_vaapi", "av1_amf"},
		amdOther:  []string{"av1_amf", "av1_vaapi"},
		intel:     []string{"av1_vaapi", "av1_qsv"},
		unknownHW: []string{"av1_amf", "av1_vaapi", "av1_nvenc"},
	},
	"vp9": {
		nvidia:    []string{"vp9_nvenc", "vp9_vaapi"},
		amdLinux:  []string{"vp9_vaapi"},
		amdOther:  []string{"vp9_vaapi"},
		intel:     []string{"vp9_vaapi", "vp9_qsv"},
		unknownHW: []string{"vp9_vaapi", "vp9_qsv", "vp9_nvenc"},
	},
	"vp8": {
		// NVENC has no VP8 support, so even NVIDIA falls back to vaapi.
		nvidia:    []string{"vp8_vaapi"},
		amdLinux:  []string{"vp8_vaapi"},
		amdOther:  []string{"vp8_vaapi"},
		intel:     []string{"vp8_vaapi", "vp8_qsv"},
		unknownHW: []string{"vp8_vaapi", "vp8_qsv"},
	},
	"mpeg2": {
		nvidia:    []string{"mpeg2_nvenc", "mpeg2_vaapi"},
		amdLinux:  []string{"mpeg2_vaapi", "mpeg2_qsv"},
		amdOther:  []string{"mpeg2_vaapi", "mpeg2_qsv"},
		intel:     []string{"mpeg2_vaapi", "mpeg2_qsv"},
		unknownHW: []string{"mpeg2_vaapi", "mpeg2_qsv"},
	},
}

func (h hwCandidates) forVendor(v Vendor, osName string) []string {
	switch v {
	case VendorNvidia:
		return h.nvidia
	case VendorAMD:
		if osName == "linux" {
			return h.amdLinux
		}
		return h.amdOther
	case VendorIntel:
		return h.intel
	default:
		return h.unknownHW
	}
}

// softwareFallbacks maps codec family names to the software encoder used
// when no hardware path exists or GPU encoding was not requested. Entries
// near the bottom are legacy formats kept for novelty output.
var softwareFallbacks = map[string]string{
	"h264":      "libx264",
	"h265":      "libx265",
	"av1":       "libsvtav1",
	"h266":      "libvvenc",
	"vp9":       "libvpx-vp9",
	"vp8":       "libvpx",
	"theora":    "libtheora",
	"mpeg4":     "mpeg4",
	"mpeg2":     "mpeg2video",
	"wmv":       "wmv2",
	"libxvid":   "libxvid",
	"msmpeg4v2": "msmpeg4v2",
	"flv1":      "flv",
	"h261":      "h261",
	"h263":      "h263",
	"snow":      "snow",
	"cinepak":   "cinepak",
	"roq":       "roqvideo",
	"smc":       "smc",
	"vc1":       "wmv3",
}

// Resolve picks the encoder for a codec family. With preferGPU set it walks
// the vendor's candidate order and returns the first encoder this ffmpeg
// build advertises, then falls back to software if none match. A codec
// string that is not a known family but is itself an advertised encoder
// name is passed through verbatim. The bool is false when nothing usable
// was found (including when the encoder query itself fails).
func (c *Catalog) Resolve(codec string, preferGPU bool) (string, bool) {
	available, ok := c.ListEncoders()
	if !ok {
		return "", false
	}
	set := make(map[string]struct{}, len(available))
	for _, e := range available {
		set[e] = struct{}{}
	}

	if preferGPU {
		if table, known := hwTable[codec]; known {
			for _, cand := range table.forVendor(c.DetectVendor(), c.OS) {
				if _, present := set[cand]; present {
					return cand, true
				}
			}
		}
	}

	if sw, known := softwareFallbacks[codec]; known {
		return sw, true
	}
	if _, present := set[codec]; present {
		return codec, true
	}
	return "", false
}

// IsHardware reports whether an encoder name is a hardware backend.
func IsHardware(enc string) bool {
	for _, tag := range []string{"nvenc", "amf", "vaapi", "qsv"} {
		if strings.Contains(enc, tag) {
			return true
		}
	}
	return false
}

// All returns every advertised video encoder, sorted, for display.
func (c *Catalog) All() []string {
	names, ok := c.ListEncoders()
	if !ok {
		return nil
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) queryEncoders() ([]string, bool) {
	out, err := c.Runner.Capture("ffmpeg", []string{"-encoders"}, 10*time.Second)
	if err != nil {
		return nil, false
	}
	return ffmpeg.ParseEncoderList(out), true
}

// queryVendor inspects the GPU inventory. lspci on Linux, wmic on Windows;
// on anything else (or on command failure) the vendor stays unknown and the
// generic candidate order applies.
func (c *Catalog) queryVendor() Vendor {
	var out string
	var err error
	switch c.OS {
	case "linux":
		out, err = c.Runner.Capture("lspci", nil, 5*time.Second)
	case "windows":
		out, err = c.Runner.Capture("wmic", []string{"path", "win32_VideoController", "get", "name"}, 5*time.Second)
	default:
		return VendorUnknown
	}
	if err != nil {
		return VendorUnknown
	}
	return classifyVendor(out)
}

// atiWordRe matches ATI as a standalone token. A plain substring test trips
// on the "compatible" in lspci's "VGA compatible controller".
var atiWordRe = regexp.MustCompile(`\bATI\b`)

func classifyVendor(inventory string) Vendor {
	up := strings.ToUpper(inventory)
	switch {
	case strings.Contains(up, "NVIDIA"):
		return VendorNvidia
	case strings.Contains(up, "AMD"), strings.Contains(up, "ADVANCED MICRO DEVICES"), atiWordRe.MatchString(up):
		return VendorAMD
	case strings.Contains(up, "INTEL"):
		return VendorIntel
	default:
		return VendorUnknown
	}
}
