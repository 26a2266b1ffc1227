package subscription

import (
	"log/slog"
	"time"
)

// ReconcilerOption configures a Reconciler instance.
type ReconcilerOption func(*Reconciler)

// WithPaymentMethodStore enables best-effort resolution of default payment
// methods on subscription events.
func WithPaymentMethodStore(store PaymentMethodStore) ReconcilerOption {
	return func(r *Reconciler) {
		if store != nil {
			r.paymentMethods = store
		}
	}
}

// WithPaymentFailedHook runs fn after each recorded failed-payment invoice.
func WithPaymentFailedHook(fn PaymentFailedHook) ReconcilerOption {
	return func(r *Reconciler) {
		if fn != nil {
			r.onFailed = fn
		}
	}
}

// WithReconcilerLogger sets the reconciler's logger.
func WithReconcilerLogger(log *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// WithReconcilerClock overrides time.Now for tests.
func WithReconcilerClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}
