package booking

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the lifecycle state of a booked appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCanceled  AppointmentStatus = "canceled"
)

// Appointment is a client booking against a professional's calendar.
// Creating one is the canonical metered action: plans cap how many
// appointments a professional can take per calendar month.
type Appointment struct {
	ID          uuid.UUID
	UserID      uuid.UUID // the professional who owns the calendar
	ServiceID   *uuid.UUID
	ClientName  string
	ClientEmail string
	StartsAt    time.Time
	EndsAt      time.Time
	Status      AppointmentStatus
	CreatedAt   time.Time
}

// Service is a bookable offering (haircut, consultation, ...). Plans cap
// how many active services a professional can list.
type Service struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	PriceAmount int64 // minor units
	Currency    string
	Duration    time.Duration
	Active      bool
	CreatedAt   time.Time
}

// MonthBoundsUTC returns the half-open [start, end) interval of the
// calendar month containing t. Month boundaries are computed in UTC so
// metering does not depend on the server's local zone.
func MonthBoundsUTC(t time.Time) (start, end time.Time) {
	t = t.UTC()
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}
