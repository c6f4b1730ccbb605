package preloader

// Application architectures each image architecture can run beyond an
// exact match.
var archCompat = map[string][]string{
	"aarch64": {"armv7hf", "rpi"},
	"armv7hf": {"rpi"},
	"amd64":   {"i386"},
}

// Reports whether an application built for appArch can run on a device
// image of imageArch.
func archSupported(imageArch, appArch string) bool {
	if imageArch == appArch {
		return true
	}
	for _, compat := range archCompat[imageArch] {
		if compat == appArch {
			return true
		}
	}
	return false
}
