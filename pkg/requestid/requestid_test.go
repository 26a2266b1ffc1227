package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	serve := func(t *testing.T, inbound string) (ctxID string, headerID string) {
		t.Helper()
		handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = requestid.FromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if inbound != "" {
			req.Header.Set(requestid.Header, inbound)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return ctxID, w.Header().Get(requestid.Header)
	}

	t.Run("generates when absent", func(t *testing.T) {
		t.Parallel()

		ctxID, headerID := serve(t, "")
		require.NotEmpty(t, ctxID)
		assert.Equal(t, ctxID, headerID)
		_, err := uuid.Parse(ctxID)
		assert.NoError(t, err)
	})

	t.Run("reuses valid inbound id", func(t *testing.T) {
		t.Parallel()

		ctxID, headerID := serve(t, "req-abc_123")
		assert.Equal(t, "req-abc_123", ctxID)
		assert.Equal(t, "req-abc_123", headerID)
	})

	t.Run("replaces invalid inbound id", func(t *testing.T) {
		t.Parallel()

		ctxID, _ := serve(t, "bad id\nwith newline")
		assert.NotEqual(t, "bad id\nwith newline", ctxID)
		assert.NotEmpty(t, ctxID)
	})

	t.Run("replaces oversized inbound id", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("a", 200)
		ctxID, _ := serve(t, long)
		assert.NotEqual(t, long, ctxID)
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	attr, ok := extract(requestid.WithContext(t.Context(), "req-1"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-1", attr.Value.String())

	_, ok = extract(t.Context())
	assert.False(t, ok)
}
