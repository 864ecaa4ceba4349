package service

import (
	"time"

	"github.com/okian/ranqr/internal/adapters/repository"
	"github.com/okian/ranqr/internal/domain/matchup"
	"github.com/okian/ranqr/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a pre-built store instead of opening SQLite.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDBPath sets the SQLite database path.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithSelector sets a custom matchup selector, e.g. one with a seeded
// random source.
func WithSelector(sel *matchup.Selector) Option {
	return func(s *Service) {
		if sel != nil {
			s.selector = sel
		}
	}
}

// WithAuditQueueSize sets the maximum size of the audit request queue.
func WithAuditQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.auditQueueSize = size
		}
	}
}

// WithAuditWorkerCount sets the number of audit workers.
func WithAuditWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.auditWorkerCount = count
		}
	}
}

// WithAuditInterval sets the periodic audit sweep interval. Zero
// disables the sweep.
func WithAuditInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval >= 0 {
			s.auditInterval = interval
		}
	}
}

// WithTopControversialLimit caps the entries in a controversy report.
func WithTopControversialLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.topLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
