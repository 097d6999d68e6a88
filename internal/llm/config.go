package llm

// Config holds the model configuration for the grading client.
type Config struct {
	Model       string
	Temperature float32
}

// DefaultConfig returns the default Gemini configuration. Low temperature
// keeps the structured output sections stable across runs.
func DefaultConfig() *Config {
	return &Config{
		Model:       "gemini-2.0-flash",
		Temperature: 0.1,
	}
}

// WithModel returns a copy of the config using the given model name.
func (c *Config) WithModel(model string) *Config {
	out := *c
	out.Model = model
	return &out
}
