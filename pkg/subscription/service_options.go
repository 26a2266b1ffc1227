package subscription

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithCounter registers a usage counter for a countable feature.
// Panics if a counter for the same feature is already registered to force
// explicit configuration over silent overwrites.
func WithCounter(name Feature, fn UsageCounterFunc) ServiceOption {
	return func(s *Service) {
		if fn == nil {
			return
		}
		if _, exists := s.counters[name]; exists {
			panic("subscription: counter for feature " + string(name) + " already registered")
		}
		s.counters[name] = fn
	}
}

// WithBillingProvider attaches a payment provider so the service can create
// checkout and customer portal links. Gate checks work without one.
func WithBillingProvider(provider BillingProvider) ServiceOption {
	return func(s *Service) {
		if provider != nil {
			s.provider = provider
		}
	}
}

// WithLogger sets the logger for fail-closed denials and counter failures.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
