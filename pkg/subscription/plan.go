package subscription

import (
	"time"

	"github.com/dmitrymomot/bookingkit/pkg/feature"
)

// Plan describes a subscription tier and its feature map.
// For paid plans the ID should match the payment provider's price ID so
// checkout sessions and webhook events map directly onto catalog entries.
type Plan struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Price       Money           `json:"price" yaml:"price"`
	Interval    BillingInterval `json:"interval" yaml:"interval"`
	TrialDays   int             `json:"trial_days,omitempty" yaml:"trial_days,omitempty"`
	Features    feature.Map     `json:"features" yaml:"features"`
	Public      bool            `json:"public" yaml:"public"` // available for self-service signup
}

// IsFree reports whether the plan bypasses the payment provider entirely.
func (p Plan) IsFree() bool {
	return p.Interval == BillingIntervalNone
}

// TrialEndsAt calculates when the trial period ends.
// Returns startedAt unchanged if the plan has no trial.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}

// Feature returns the named feature value from the plan's feature map.
// The map shape is plan-defined; absent keys return ok=false.
func (p Plan) Feature(name Feature) (feature.Value, bool) {
	return p.Features.Get(string(name))
}
