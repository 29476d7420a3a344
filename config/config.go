package config

// Profile represents a named set of advanced encoding parameters
type Profile string

const (
	ProfileDefault Profile = "default" // Balanced speed/quality
	ProfileQuality Profile = "quality" // Two-pass, slower presets, denoise
	ProfileFast    Profile = "fast"    // Single pass, fastest presets
	ProfileArchive Profile = "archive" // 10-bit two-pass for long-term storage
)

// AvailableProfiles returns all available profile names
func AvailableProfiles() []Profile {
	return []Profile{ProfileDefault, ProfileQuality, ProfileFast, ProfileArchive}
}

// Advanced holds the optional encoding parameters a compression attempt
// consumes. The zero value is a usable single-pass 8-bit configuration.
type Advanced struct {
	// Profile name for display purposes
	ProfileName Profile
	// TwoPass enables two-pass rate control for encoders that support it
	TwoPass bool
	// TenBit switches the pixel format to a 10-bit variant
	TenBit bool
	// Denoise enables the hqdn3d filter stage
	Denoise bool
	// Denoise strengths (luma spatial, chroma spatial, luma temporal,
	// chroma temporal). Defaults 2:2:7:7, biased toward temporal smoothing
	// which costs the least bitrate.
	DenoiseLumaSpatial    int
	DenoiseChromaSpatial  int
	DenoiseLumaTemporal   int
	DenoiseChromaTemporal int
	// AdaptiveQuant enables per-encoder adaptive quantization extras
	AdaptiveQuant bool
	// CPUUsed controls speed vs compression (0-8, lower = slower/better).
	// Mapped per encoder: libsvtav1 preset = CPUUsed+4, libaom -cpu-used.
	CPUUsed int
	// Keyframe sets the GOP size (-g); empty leaves the encoder default
	Keyframe string
	// FrameRate overrides the output frame rate; empty keeps the source rate
	FrameRate string
	// PixelFormat overrides the filter chain's pixel format; empty means
	// yuv420p (or yuv420p10le with TenBit)
	PixelFormat string
	// AudioCodec overrides the audio encoder; empty picks per video codec
	AudioCodec string
	// StripMetadata drops all container/stream metadata from the output
	StripMetadata bool
	// AudioHighpassHz / AudioLowpassHz add audio cutoff filters when > 0
	AudioHighpassHz int
	AudioLowpassHz  int
	// Title and Author are written as output metadata tags when set
	Title  string
	Author string
}

// DefaultAdvanced returns the balanced defaults
func DefaultAdvanced() Advanced {
	return GetProfile(ProfileDefault)
}

// GetProfile returns the advanced parameters for a specific profile
func GetProfile(profile Profile) Advanced {
	base := Advanced{
		ProfileName:           profile,
		CPUUsed:               6,
		DenoiseLumaSpatial:    2,
		DenoiseChromaSpatial:  2,
		DenoiseLumaTemporal:   7,
		DenoiseChromaTemporal: 7,
	}

	switch profile {
	case ProfileQuality:
		// Slower encode, denoised input, better rate allocation
		base.TwoPass = true
		base.Denoise = true
		base.AdaptiveQuant = true
		base.CPUUsed = 4

	case ProfileFast:
		base.CPUUsed = 8

	case ProfileArchive:
		// 10-bit keeps gradients clean at low bitrates
		base.TwoPass = true
		base.TenBit = true
		base.AdaptiveQuant = true
		base.CPUUsed = 3

	default: // ProfileDefault
	}

	return base
}

// ProfileDescription returns a human-readable description of a profile
func ProfileDescription(profile Profile) string {
	switch profile {
	case ProfileQuality:
		return "High quality - two-pass with denoise, slower encode"
	case ProfileFast:
		return "Fast - single pass, fastest encoder presets"
	case ProfileArchive:
		return "Archive - 10-bit two-pass for long-term storage"
	default:
		return "Default balanced - single pass, moderate speed"
	}
}
