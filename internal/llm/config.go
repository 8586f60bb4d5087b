// Package llm provides the language model client used for place-name recognition.
package llm

import "time"

// Defaults for Config
const (
	DefaultModel                   = "gemini-2.5-flash-lite"
	DefaultTemperature     float32 = 0.1
	DefaultMaxOutputTokens int32   = 2048
	DefaultTimeout                 = 30 * time.Second
)

// Config selects the model and bounds each generation call. Zero fields
// take the defaults.
type Config struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
