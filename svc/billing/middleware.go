package billing

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/auth"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
)

// FeatureChecker is the slice of the subscription service the gate
// middleware needs.
type FeatureChecker interface {
	CanUse(ctx context.Context, userID uuid.UUID, name subscription.Feature) bool
}

// RequireFeature guards a route behind a plan feature. The user must be
// authenticated upstream; denial returns 403 with the feature name so
// clients can render an upgrade prompt.
//
// This is a gate, not a reservation: two concurrent requests can both
// pass a limit check for the last remaining slot.
func RequireFeature(svc FeatureChecker, feature subscription.Feature) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
				return
			}

			if !svc.CanUse(r.Context(), userID, feature) {
				writeJSON(w, http.StatusForbidden, map[string]any{
					"error":   "feature_not_available",
					"feature": string(feature),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
