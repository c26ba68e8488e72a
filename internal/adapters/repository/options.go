package repository

import (
	"github.com/okian/halfpace/pkg/logger"
)

// Option applies a configuration option to the CSVSource.
type Option func(*CSVSource)

// WithLogger sets the logger used to report dropped rows.
func WithLogger(l logger.Logger) Option {
	return func(s *CSVSource) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDefaultCountry sets the country used when a row has none.
func WithDefaultCountry(code string) Option {
	return func(s *CSVSource) {
		if code != "" {
			s.defaultCountry = code
		}
	}
}
