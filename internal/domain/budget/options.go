package budget

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithUnitCosts replaces the default unit costs.
func WithUnitCosts(c UnitCosts) Option {
	return func(e *Engine) {
		e.costs = c
	}
}
