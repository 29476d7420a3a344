package config

import "testing"

func TestGetProfileDefaults(t *testing.T) {
	adv := DefaultAdvanced()
	if adv.ProfileName != ProfileDefault {
		t.Errorf("ProfileName = %v, want default", adv.ProfileName)
	}
	if adv.TwoPass || adv.TenBit || adv.Denoise {
		t.Error("default profile should be single-pass 8-bit without denoise")
	}
	if adv.CPUUsed != 6 {
		t.Errorf("CPUUsed = %d, want 6", adv.CPUUsed)
	}
	if adv.DenoiseLumaSpatial != 2 || adv.DenoiseChromaSpatial != 2 ||
		adv.DenoiseLumaTemporal != 7 || adv.DenoiseChromaTemporal != 7 {
		t.Error("denoise strengths should default to 2:2:7:7")
	}
}

func TestGetProfileVariants(t *testing.T) {
	quality := GetProfile(ProfileQuality)
	if !quality.TwoPass || !quality.Denoise || !quality.AdaptiveQuant {
		t.Error("quality profile should enable two-pass, denoise and AQ")
	}
	if quality.CPUUsed >= GetProfile(ProfileDefault).CPUUsed {
		t.Error("quality profile should encode slower than default")
	}

	fast := GetProfile(ProfileFast)
	if fast.TwoPass {
		t.Error("fast profile must stay single-pass")
	}
	if fast.CPUUsed != 8 {
		t.Errorf("fast CPUUsed = %d, want 8", fast.CPUUsed)
	}

	archive := GetProfile(ProfileArchive)
	if !archive.TenBit || !archive.TwoPass {
		t.Error("archive profile should be 10-bit two-pass")
	}
}

func TestGetProfileUnknownFallsBackToDefault(t *testing.T) {
	adv := GetProfile(Profile("nope"))
	ref := GetProfile(ProfileDefault)
	adv.ProfileName = ref.ProfileName
	if adv != ref {
		t.Errorf("unknown profile = %+v, want default values", adv)
	}
}

func TestAvailableProfilesHaveDescriptions(t *testing.T) {
	for _, p := range AvailableProfiles() {
		if ProfileDescription(p) == "" {
			t.Errorf("profile %s has no description", p)
		}
	}
}
