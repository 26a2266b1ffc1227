package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/auth"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
)

// maxWebhookBody caps webhook payload reads. Stripe events are a few KB;
// anything near the cap is not a legitimate event.
const maxWebhookBody = 1 << 20

// WebhookHandler is the slice of the reconciler the router needs.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// SubscriptionReader is the slice of the subscription service backing the
// authenticated billing endpoints.
type SubscriptionReader interface {
	FeatureChecker
	GetSubscription(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error)
	Usage(ctx context.Context, userID uuid.UUID, name subscription.Feature) (used, limit int64, err error)
	MeteredFeatures() []subscription.Feature
	CreateCheckoutLink(ctx context.Context, userID uuid.UUID, planID string, opts subscription.CheckoutOptions) (*subscription.CheckoutLink, error)
	GetCustomerPortalLink(ctx context.Context, userID uuid.UUID) (*subscription.PortalLink, error)
}

// Router serves the Stripe webhook endpoint and the authenticated billing
// API.
type Router struct {
	reconciler WebhookHandler
	svc        SubscriptionReader
	authMW     func(http.Handler) http.Handler
	log        *slog.Logger
}

// NewRouter wires the billing HTTP surface. authMW guards the /billing
// routes; the webhook route is authenticated by signature instead.
func NewRouter(reconciler WebhookHandler, svc SubscriptionReader, authMW func(http.Handler) http.Handler, opts ...RouterOption) *Router {
	if reconciler == nil {
		panic("billing: webhook handler is required")
	}
	if svc == nil {
		panic("billing: subscription service is required")
	}
	if authMW == nil {
		panic("billing: auth middleware is required")
	}

	rt := &Router{
		reconciler: reconciler,
		svc:        svc,
		authMW:     authMW,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// RouterOption configures the billing router.
type RouterOption func(*Router)

func WithRouterLogger(log *slog.Logger) RouterOption {
	return func(rt *Router) {
		if log != nil {
			rt.log = log
		}
	}
}

// Handler returns the chi router with all billing routes mounted.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/webhooks/stripe", rt.handleStripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(rt.authMW)
		r.Get("/billing/subscription", rt.handleGetSubscription)
		r.Get("/billing/usage", rt.handleGetUsage)
		r.Post("/billing/checkout", rt.handleCreateCheckout)
		r.Get("/billing/portal", rt.handleGetPortal)
	})

	return r
}

// handleStripeWebhook verifies and applies one provider event. Status
// codes steer Stripe's redelivery: 400 marks events we will never accept
// as-is (bad signature, missing metadata, unknown subscription), 500
// marks transient store failures Stripe should retry.
func (rt *Router) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read body"})
		return
	}

	err = rt.reconciler.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	case errors.Is(err, subscription.ErrWebhookVerification),
		errors.Is(err, subscription.ErrMissingEventMetadata),
		errors.Is(err, subscription.ErrUnknownProviderObject):
		rt.log.WarnContext(r.Context(), "rejected webhook event", logger.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		rt.log.ErrorContext(r.Context(), "failed to process webhook event", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

type subscriptionResponse struct {
	PlanID             string     `json:"plan_id"`
	Status             string     `json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	TrialEnd           *time.Time `json:"trial_end,omitempty"`
	TrialDaysRemaining int        `json:"trial_days_remaining,omitempty"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
}

func (rt *Router) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	sub, err := rt.svc.GetSubscription(r.Context(), userID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "no_subscription"})
			return
		}
		rt.log.ErrorContext(r.Context(), "failed to load subscription", logger.UserID(userID), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, subscriptionResponse{
		PlanID:             sub.PlanID,
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		TrialEnd:           sub.TrialEnd,
		TrialDaysRemaining: sub.TrialDaysRemaining(),
		CanceledAt:         sub.CanceledAt,
	})
}

type featureUsageResponse struct {
	Feature string `json:"feature"`
	Used    int64  `json:"used"`
	Limit   int64  `json:"limit"`
}

func (rt *Router) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	usage := make([]featureUsageResponse, 0)
	for _, feature := range rt.svc.MeteredFeatures() {
		used, limit, err := rt.svc.Usage(r.Context(), userID, feature)
		if err != nil {
			// A user without a plan entitlement for one feature still
			// gets the rest of the report.
			continue
		}
		usage = append(usage, featureUsageResponse{
			Feature: string(feature),
			Used:    used,
			Limit:   limit,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"usage": usage})
}

type checkoutRequest struct {
	PlanID     string `json:"plan_id"`
	Email      string `json:"email,omitempty"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (rt *Router) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request"})
		return
	}

	link, err := rt.svc.CreateCheckoutLink(r.Context(), userID, req.PlanID, subscription.CheckoutOptions{
		Email:      req.Email,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"url": link.URL, "expires_at": link.ExpiresAt})
	case errors.Is(err, subscription.ErrPlanNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "plan_not_found"})
	case errors.Is(err, subscription.ErrSubscriptionAlreadyExists):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "subscription_exists"})
	default:
		rt.log.ErrorContext(r.Context(), "failed to create checkout link",
			logger.UserID(userID), logger.PlanID(req.PlanID), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func (rt *Router) handleGetPortal(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	link, err := rt.svc.GetCustomerPortalLink(r.Context(), userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"url": link.URL})
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no_subscription"})
	case errors.Is(err, subscription.ErrNoPortalForFreePlan):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "free_plan_has_no_portal"})
	default:
		rt.log.ErrorContext(r.Context(), "failed to create portal link", logger.UserID(userID), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
