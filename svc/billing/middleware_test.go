package billing_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/svc/billing"
)

func TestRequireFeature(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	serve := func(t *testing.T, svc billing.FeatureChecker, authenticated bool) *httptest.ResponseRecorder {
		t.Helper()
		handler := billing.RequireFeature(svc, subscription.FeatureAppointments)(next)
		if authenticated {
			handler = fakeAuth(userID)(handler)
		}

		req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("allowed passes through", func(t *testing.T) {
		t.Parallel()

		svc := &stubSubscriptionReader{canUse: map[subscription.Feature]bool{
			subscription.FeatureAppointments: true,
		}}
		w := serve(t, svc, true)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("denied is 403 with feature name", func(t *testing.T) {
		t.Parallel()

		svc := &stubSubscriptionReader{canUse: map[subscription.Feature]bool{}}
		w := serve(t, svc, true)

		require.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"feature_not_available","feature":"appointments"}`, w.Body.String())
	})

	t.Run("unauthenticated is 401", func(t *testing.T) {
		t.Parallel()

		svc := &stubSubscriptionReader{canUse: map[subscription.Feature]bool{
			subscription.FeatureAppointments: true,
		}}
		w := serve(t, svc, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
