package memory

import "go.uber.org/zap"

type Option func(*Store)

// WithLogger sets the logger used for regression and correction warnings.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}
