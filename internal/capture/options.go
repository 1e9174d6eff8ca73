package capture

import "go.uber.org/zap"

// LineObserver is called after each dump line has been written to the sink.
type LineObserver func(done, total int)

// StateObserver is called on every state transition.
type StateObserver func(from, to State)

// Config holds the driver configuration.
type Config struct {
	// Logger receives session tracing (optional)
	Logger *zap.Logger

	// OnLine reports per-line progress (optional)
	OnLine LineObserver

	// OnState reports state transitions (optional)
	OnState StateObserver

	// Prompt is the byte sequence marking monitor readiness
	Prompt []byte

	// Trim limits sink output to exactly the requested length
	Trim bool
}

func defaultConfig() Config {
	return Config{
		Logger: zap.NewNop(),
		Prompt: []byte(Prompt),
	}
}

// Option is a functional option for configuring the Driver.
type Option func(*Config)

// WithLogger sets the logger for session tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithLineObserver sets a callback to track dump progress.
//
// Example:
//
//	drv := capture.NewDriver(port,
//	    capture.WithLineObserver(func(done, total int) {
//	        fmt.Printf("\r%d/%d lines", done, total)
//	    }),
//	)
func WithLineObserver(fn LineObserver) Option {
	return func(c *Config) {
		c.OnLine = fn
	}
}

// WithStateObserver sets a callback for state transitions.
func WithStateObserver(fn StateObserver) Option {
	return func(c *Config) {
		c.OnState = fn
	}
}

// WithPrompt overrides the monitor prompt. Other firmware builds print a
// different hostname in the prompt.
func WithPrompt(prompt string) Option {
	return func(c *Config) {
		if prompt != "" {
			c.Prompt = []byte(prompt)
		}
	}
}

// WithTrim makes the driver write exactly Request.Length bytes instead of
// whole 16-byte lines.
func WithTrim(trim bool) Option {
	return func(c *Config) {
		c.Trim = trim
	}
}
