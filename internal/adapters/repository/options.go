package repository

// Default repository configuration constants.
const (
	defaultBusyTimeoutMS = 5000
	defaultMaxListLimit  = 100
)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithBusyTimeout sets how long SQLite waits on a locked database, in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(s *SQLiteStore) {
		if ms > 0 {
			s.busyTimeoutMS = ms
		}
	}
}

// WithMaxListLimit caps the number of reviews ListReviews returns.
func WithMaxListLimit(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}
