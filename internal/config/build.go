package config

// BuildConfig configures site builds.
type BuildConfig struct {
	// Clean removes the output directory before building.
	Clean bool `yaml:"clean"`

	// Concurrency bounds pages rendered at once; 0 means GOMAXPROCS.
	Concurrency int `yaml:"concurrency"`

	// CheckContract fails the build when a page using the logo or the
	// carousel lacks one of their elements.
	CheckContract bool `yaml:"check_contract"`
}

// DefaultBuildConfig returns sensible defaults.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Concurrency:   4,
		CheckContract: true,
	}
}
