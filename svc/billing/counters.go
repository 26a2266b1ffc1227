package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/svc/booking"
)

// NewAppointmentsCounter meters the "appointments" feature: appointments
// booked by the user in the current calendar month, computed in UTC.
func NewAppointmentsCounter(repo *booking.Repository) subscription.UsageCounterFunc {
	return func(ctx context.Context, userID uuid.UUID) (int64, error) {
		return repo.CountAppointmentsForMonth(ctx, userID, time.Now().UTC())
	}
}

// NewServicesCounter meters the "services" feature: offerings the user
// currently has listed as active.
func NewServicesCounter(repo *booking.Repository) subscription.UsageCounterFunc {
	return func(ctx context.Context, userID uuid.UUID) (int64, error) {
		return repo.CountActiveServices(ctx, userID)
	}
}
