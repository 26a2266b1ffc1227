package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/auth"
)

func TestNewService(t *testing.T) {
	t.Parallel()

	t.Run("missing signing key", func(t *testing.T) {
		t.Parallel()

		_, err := auth.NewService(auth.Config{})
		require.ErrorIs(t, err, auth.ErrMissingSigningKey)
	})

	t.Run("defaults applied", func(t *testing.T) {
		t.Parallel()

		svc, err := auth.NewService(auth.Config{SigningKey: "0123456789abcdef0123456789abcdef"})
		require.NoError(t, err)
		require.NotNil(t, svc)
	})
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	cfg := auth.Config{
		SigningKey: "0123456789abcdef0123456789abcdef",
		Issuer:     "bookingkit-test",
		AccessTTL:  time.Hour,
	}

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		svc, err := auth.NewService(cfg)
		require.NoError(t, err)

		userID := uuid.New()
		token, err := svc.Issue(userID)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.Verify(token)
		require.NoError(t, err)

		got, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()

		svc, err := auth.NewService(cfg)
		require.NoError(t, err)

		_, err = svc.Verify("not.a.token")
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		t.Parallel()

		svc, err := auth.NewService(cfg)
		require.NoError(t, err)

		other, err := auth.NewService(auth.Config{
			SigningKey: "ffffffffffffffffffffffffffffffff",
			Issuer:     cfg.Issuer,
			AccessTTL:  cfg.AccessTTL,
		})
		require.NoError(t, err)

		token, err := svc.Issue(uuid.New())
		require.NoError(t, err)

		_, err = other.Verify(token)
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects wrong issuer", func(t *testing.T) {
		t.Parallel()

		issuer, err := auth.NewService(auth.Config{
			SigningKey: cfg.SigningKey,
			Issuer:     "someone-else",
			AccessTTL:  cfg.AccessTTL,
		})
		require.NoError(t, err)

		svc, err := auth.NewService(cfg)
		require.NoError(t, err)

		token, err := issuer.Issue(uuid.New())
		require.NoError(t, err)

		_, err = svc.Verify(token)
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		t.Parallel()

		short, err := auth.NewService(auth.Config{
			SigningKey: cfg.SigningKey,
			Issuer:     cfg.Issuer,
			AccessTTL:  time.Nanosecond,
		})
		require.NoError(t, err)

		token, err := short.Issue(uuid.New())
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		_, err = short.Verify(token)
		require.ErrorIs(t, err, auth.ErrExpiredToken)
	})
}
