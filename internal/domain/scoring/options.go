package scoring

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithThresholds replaces the default gap thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}
