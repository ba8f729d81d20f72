package config

import "fmt"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, console
	File       string          `yaml:"file"`       // optional extra output
	Categories map[string]bool `yaml:"categories"` // per-category toggles
}

// ValidLogLevels lists the accepted levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// Validate checks level and format.
func (c *LoggingConfig) Validate() error {
	valid := false
	for _, l := range ValidLogLevels {
		if c.Level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid level: %s (valid: %v)", c.Level, ValidLogLevels)
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("invalid format: %s (valid: json, console)", c.Format)
	}
	return nil
}
