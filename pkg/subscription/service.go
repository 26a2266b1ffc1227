package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// UsageCounterFunc returns the current usage of a countable feature for a
// user. Counters run on every gate check, so implementations should be
// cheap: an indexed COUNT, or a cached value.
type UsageCounterFunc func(ctx context.Context, userID uuid.UUID) (int64, error)

// PlanSource loads the plan catalog keyed by plan ID.
type PlanSource interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// Service answers "may user U perform an action requiring feature F" from
// the user's active subscription and the plan catalog. It never writes:
// gate checks are reads plus arithmetic, and the read-then-decide pattern
// is a check, not a reservation. Two concurrent callers can both pass a
// CanUse check for the last remaining slot.
type Service struct {
	plans    map[string]Plan
	subs     SubscriptionStore
	provider BillingProvider
	counters map[Feature]UsageCounterFunc
	log      *slog.Logger
	now      func() time.Time
}

// NewService loads the plan catalog and returns a gate service.
// Counters are registered per feature with WithCounter; features without a
// counter are treated as boolean capabilities by CanUse.
func NewService(ctx context.Context, src PlanSource, subs SubscriptionStore, opts ...ServiceOption) (*Service, error) {
	if src == nil {
		panic("subscription: PlanSource is required")
	}
	if subs == nil {
		panic("subscription: SubscriptionStore is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	s := &Service{
		plans:    plans,
		subs:     subs,
		counters: make(map[Feature]UsageCounterFunc),
		log:      slog.New(slog.DiscardHandler),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckFeature reports whether the user's plan includes the feature,
// optionally at a requested quantity. It fails closed: no active
// subscription, unknown plan, absent key, or any store error all deny.
//
// With a quantity and a limit-valued feature, -1 means unlimited and the
// check passes iff value <= limit. Without a quantity, truthiness of the
// stored value is sufficient.
func (s *Service) CheckFeature(ctx context.Context, userID uuid.UUID, name Feature, value ...int64) bool {
	plan, ok := s.activePlan(ctx, userID)
	if !ok {
		return false
	}

	v, ok := plan.Feature(name)
	if !ok || !v.Enabled() {
		return false
	}

	if len(value) > 0 {
		if _, isLimit := v.LimitValue(); isLimit {
			return v.Allows(value[0])
		}
	}
	return true
}

// CountUsage returns the user's current usage of a countable feature.
// Unknown feature names and counter failures both count as zero; callers
// get no distinction between "nothing used" and "could not count".
func (s *Service) CountUsage(ctx context.Context, userID uuid.UUID, name Feature) int64 {
	counter, ok := s.counters[name]
	if !ok {
		return 0
	}

	n, err := counter(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "usage counter failed",
			slog.String("feature", string(name)),
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		return 0
	}
	return n
}

// CanUse answers "is there room for one more". Boolean features are
// permitted iff the plan includes them; countable features iff the plan
// allows current usage plus one. This is a check, not a reservation.
func (s *Service) CanUse(ctx context.Context, userID uuid.UUID, name Feature) bool {
	plan, ok := s.activePlan(ctx, userID)
	if !ok {
		return false
	}

	v, ok := plan.Feature(name)
	if !ok || !v.Enabled() {
		return false
	}

	if _, isLimit := v.LimitValue(); isLimit {
		return v.Allows(s.CountUsage(ctx, userID, name) + 1)
	}
	return true
}

// Usage returns current usage and the plan limit for a countable feature.
// Intended for dashboards; unlike the boolean gates it surfaces errors.
func (s *Service) Usage(ctx context.Context, userID uuid.UUID, name Feature) (used, limit int64, err error) {
	sub, err := s.subs.GetActiveByUser(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	plan, ok := s.plans[sub.PlanID]
	if !ok {
		return 0, 0, ErrPlanNotFound
	}

	v, ok := plan.Feature(name)
	if !ok {
		return 0, 0, ErrFeatureNotIncluded
	}
	l, isLimit := v.LimitValue()
	if !isLimit {
		return 0, 0, ErrFeatureNotIncluded
	}

	counter, ok := s.counters[name]
	if !ok {
		return 0, l, ErrNoCounterRegistered
	}
	used, err = counter(ctx, userID)
	if err != nil {
		return 0, l, errors.Join(ErrFailedToCountUsage, err)
	}
	return used, l, nil
}

// MeteredFeatures returns the features with a registered usage counter.
func (s *Service) MeteredFeatures() []Feature {
	out := make([]Feature, 0, len(s.counters))
	for name := range s.counters {
		out = append(out, name)
	}
	return out
}

// HasActiveSubscription reports whether the user holds a subscription in a
// gating status. Fails closed on store errors.
func (s *Service) HasActiveSubscription(ctx context.Context, userID uuid.UUID) bool {
	_, ok := s.activeSubscription(ctx, userID)
	return ok
}

// GetSubscription returns the user's active subscription.
func (s *Service) GetSubscription(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.subs.GetActiveByUser(ctx, userID)
}

// Plan returns a plan from the loaded catalog.
func (s *Service) Plan(planID string) (Plan, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

// CheckoutOptions contains options for creating a checkout session.
type CheckoutOptions struct {
	Email      string
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutLink starts a subscription purchase for a plan. Users with
// an existing subscription are rejected; free plans activate locally
// without touching the provider.
func (s *Service) CreateCheckoutLink(ctx context.Context, userID uuid.UUID, planID string, opts CheckoutOptions) (*CheckoutLink, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}

	if _, err := s.subs.GetActiveByUser(ctx, userID); err == nil {
		return nil, ErrSubscriptionAlreadyExists
	} else if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}

	if plan.IsFree() {
		now := s.now()
		sub := &Subscription{
			ID:                 uuid.New(),
			UserID:             userID,
			PlanID:             planID,
			Status:             StatusActive,
			CurrentPeriodStart: now,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.subs.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to save free plan subscription: %w", err)
		}
		// No payment needed, send the user straight to the success URL.
		return &CheckoutLink{
			URL:       opts.SuccessURL,
			ExpiresAt: now.Add(5 * time.Minute),
		}, nil
	}

	if s.provider == nil {
		return nil, fmt.Errorf("no billing provider configured for paid plan %q", planID)
	}

	return s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		PriceID:    plan.ID,
		UserID:     userID.String(),
		PlanID:     planID,
		Email:      opts.Email,
		SuccessURL: opts.SuccessURL,
		CancelURL:  opts.CancelURL,
	})
}

// GetCustomerPortalLink returns a provider portal link where the user can
// manage payment methods, cancel, or change plans.
func (s *Service) GetCustomerPortalLink(ctx context.Context, userID uuid.UUID) (*PortalLink, error) {
	sub, err := s.subs.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.ProviderSubID == "" {
		return nil, ErrNoPortalForFreePlan
	}
	if s.provider == nil {
		return nil, ErrNoPortalURL
	}
	return s.provider.GetCustomerPortalLink(ctx, sub)
}

// activePlan resolves the user's active subscription to its plan, failing
// closed on every lookup error.
func (s *Service) activePlan(ctx context.Context, userID uuid.UUID) (Plan, bool) {
	sub, ok := s.activeSubscription(ctx, userID)
	if !ok {
		return Plan{}, false
	}

	plan, ok := s.plans[sub.PlanID]
	if !ok {
		s.log.WarnContext(ctx, "subscription references unknown plan",
			slog.String("plan_id", sub.PlanID),
			slog.String("user_id", userID.String()))
		return Plan{}, false
	}
	return plan, true
}

func (s *Service) activeSubscription(ctx context.Context, userID uuid.UUID) (*Subscription, bool) {
	sub, err := s.subs.GetActiveByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrSubscriptionNotFound) {
			s.log.ErrorContext(ctx, "failed to load subscription",
				slog.String("user_id", userID.String()),
				slog.Any("error", err))
		}
		return nil, false
	}
	if !sub.GrantsFeatures() {
		return nil, false
	}
	return sub, true
}

// validatePlans catches catalog configuration mistakes at startup.
func validatePlans(plans map[string]Plan) error {
	if len(plans) == 0 {
		return errors.Join(ErrInvalidPlanConfiguration, errors.New("plan catalog is empty"))
	}
	for planID, plan := range plans {
		if plan.ID != planID {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", planID, plan.ID))
		}
		if plan.TrialDays < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative trial days: %d", planID, plan.TrialDays))
		}
	}
	return nil
}
