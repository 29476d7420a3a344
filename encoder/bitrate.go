package encoder

// TargetKbps computes the video bitrate that should land a file of
// targetMB megabytes for the given duration. 10% of the budget is reserved
// for container overhead, 64 kbps for the audio track, and the result never
// drops below 50 kbps since ffmpeg rejects absurdly low rates.
func TargetKbps(targetMB, durationSeconds float64) int {
	if durationSeconds <= 0 {
		return 50
	}
	kbps := int(targetMB*8192*0.9/durationSeconds) - 64
	if kbps < 50 {
		kbps = 50
	}
	return kbps
}
