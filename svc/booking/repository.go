package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/bookingkit/pkg/pg"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrServiceNotFound     = errors.New("service not found")
)

// Repository persists appointments and service offerings and answers the
// count queries the billing usage counters are built on.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("booking: pgx pool is required")
	}
	return &Repository{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateAppointment inserts a new appointment. The caller is expected to
// have passed the feature gate before calling this; the repository does
// not enforce plan limits itself.
func (r *Repository) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}
	a.CreatedAt = r.now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, user_id, service_id, client_name, client_email, starts_at, ends_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.UserID, a.ServiceID, a.ClientName, a.ClientEmail, a.StartsAt, a.EndsAt, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// CountAppointmentsForMonth counts the user's appointments whose start
// time falls in the calendar month (UTC) containing at. Canceled
// appointments still count: the slot was consumed when it was booked.
func (r *Repository) CountAppointmentsForMonth(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	start, end := MonthBoundsUTC(at)

	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE user_id = $1 AND starts_at >= $2 AND starts_at < $3`,
		userID, start, end,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// CreateService inserts a new bookable offering.
func (r *Repository) CreateService(ctx context.Context, s *Service) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = r.now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, user_id, name, description, price_amount, currency, duration_seconds, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.Name, s.Description, s.PriceAmount, s.Currency, int64(s.Duration.Seconds()), s.Active, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

// CountActiveServices counts the user's currently listed offerings.
func (r *Repository) CountActiveServices(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM services WHERE user_id = $1 AND active`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}
	return count, nil
}

// GetAppointment loads a single appointment by ID.
func (r *Repository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, service_id, client_name, client_email, starts_at, ends_at, status, created_at
		FROM appointments WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.UserID, &a.ServiceID, &a.ClientName, &a.ClientEmail, &a.StartsAt, &a.EndsAt, &a.Status, &a.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}
