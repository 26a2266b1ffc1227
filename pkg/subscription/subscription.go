package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription mirrors one provider-side subscription for one user.
// At most one subscription per user may be in a gating status at a time;
// the database enforces this with a partial unique index on user_id.
type Subscription struct {
	ID                     uuid.UUID
	UserID                 uuid.UUID
	CompanyID              *uuid.UUID // set when the subscription belongs to a company account
	PlanID                 string
	Status                 Status
	ProviderSubID          string // provider's subscription ID (empty for free plans)
	ProviderCustomerID     string // provider's customer ID (cus_xxx)
	CurrentPeriodStart     time.Time
	CurrentPeriodEnd       time.Time
	CancelAtPeriodEnd      bool
	TrialStart             *time.Time
	TrialEnd               *time.Time
	DefaultPaymentMethodID *uuid.UUID // local payment_methods row, nil when unresolved
	CreatedAt              time.Time
	UpdatedAt              time.Time
	CanceledAt             *time.Time
}

// IsActive reports whether the subscription is active (paid).
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsTrialing reports whether the subscription is in its trial period.
func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrialing
}

// IsCanceled reports whether the subscription reached its terminal state.
func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// GrantsFeatures reports whether the subscription's status entitles the
// user to the plan's feature map.
func (s *Subscription) GrantsFeatures() bool {
	for _, status := range GatingStatuses {
		if s.Status == status {
			return true
		}
	}
	return false
}

// TrialDaysRemainingAt returns whole days left in the trial at a given time,
// rounding partial days up. Returns 0 outside of an active trial.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialing() || s.TrialEnd == nil {
		return 0
	}

	remaining := s.TrialEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}

	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// TrialDaysRemaining returns whole days left in the trial.
func (s *Subscription) TrialDaysRemaining() int {
	return s.TrialDaysRemainingAt(time.Now().UTC())
}
