package email_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/email"
)

func TestSendEmailParamsValidate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "customer@example.com",
		Subject:  "Payment failed",
		BodyHTML: "<p>Please update your card.</p>",
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, valid.Validate())
	})

	t.Run("bad recipient", func(t *testing.T) {
		t.Parallel()
		p := valid
		p.SendTo = "not-an-email"
		require.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
	})

	t.Run("empty subject", func(t *testing.T) {
		t.Parallel()
		p := valid
		p.Subject = ""
		require.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		p := valid
		p.BodyHTML = ""
		require.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
	})
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	t.Run("missing tokens", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewPostmarkClient(email.Config{
			SenderEmail:  "billing@example.com",
			SupportEmail: "support@example.com",
		})
		require.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("invalid sender", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewPostmarkClient(email.Config{
			PostmarkServerToken:  "server-token",
			PostmarkAccountToken: "account-token",
			SenderEmail:          "nope",
			SupportEmail:         "support@example.com",
		})
		require.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewPostmarkClient(email.Config{
			PostmarkServerToken:  "server-token",
			PostmarkAccountToken: "account-token",
			SenderEmail:          "billing@example.com",
			SupportEmail:         "support@example.com",
		})
		require.NoError(t, err)
		require.NotNil(t, sender)
	})
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "customer@example.com",
		Subject:  "Payment failed",
		BodyHTML: "<p>Please update your card.</p>",
		Tag:      "dunning",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlFound, jsonFound bool
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".html":
			htmlFound = true
			body, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			assert.Contains(t, string(body), "update your card")
		case ".json":
			jsonFound = true
		}
		assert.Contains(t, e.Name(), "dunning")
	}
	assert.True(t, htmlFound)
	assert.True(t, jsonFound)
}
