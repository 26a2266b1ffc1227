package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output with static attrs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithFormat(logger.FormatJSON),
			logger.WithAttr(slog.String("service", "billing")),
		)

		log.Info("hello")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "hello", rec["msg"])
		assert.Equal(t, "billing", rec["service"])
	})

	t.Run("level filtering", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithLevel(slog.LevelWarn),
		)

		log.Info("dropped")
		assert.Empty(t, buf.String())

		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat(logger.Format("xml")))
		})
	})
}

func TestWithContextValue(t *testing.T) {
	t.Parallel()

	type requestIDKey struct{}

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextValue("request_id", requestIDKey{}),
	)

	ctx := context.WithValue(context.Background(), requestIDKey{}, "req-42")
	log.InfoContext(ctx, "handled")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-42", rec["request_id"])

	buf.Reset()
	log.InfoContext(context.Background(), "no value")

	rec = map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.NotContains(t, rec, "request_id")
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("production env uses json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewFromConfig(logger.Config{
			Level:   "info",
			Format:  logger.FormatJSON,
			Service: "bookingkit",
			AppEnv:  "production",
		}, logger.WithOutput(&buf))

		log.Info("up")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "production", rec["env"])
		assert.Equal(t, "bookingkit", rec["service"])
	})

	t.Run("debug level honored", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewFromConfig(logger.Config{
			Level:  "debug",
			Format: logger.FormatJSON,
			AppEnv: "production",
		}, logger.WithOutput(&buf))

		log.Debug("verbose")
		assert.Contains(t, buf.String(), "verbose")
	})
}

func TestAttrHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(assert.AnError).Key)
	assert.Equal(t, "feature", logger.Feature("appointments").Key)
	assert.Equal(t, slog.Attr{}, logger.UserID(nil))
}
