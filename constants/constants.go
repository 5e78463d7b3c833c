package constants

import "os"

func GetConfigPath() string {
	return os.Getenv("PERTURB_CONFIG")
}

func GetOutDir() string {
	path := os.Getenv("OUT_PATH")
	if path != "" {
		return path
	}
	return "./out"
}

func GetSoundFontPath() string {
	return os.Getenv("SOUNDFONT_PATH")
}

// DefaultResolution is used when writing scores that carry no resolution.
const DefaultResolution = 480

const ReportSuffix = ".report.yaml"

// ConfigSnapshot is the name of the effective config written to the output dir.
const ConfigSnapshot = "config.yaml"
