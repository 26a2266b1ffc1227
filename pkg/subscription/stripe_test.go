package subscription_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/subscription"
)

const testWebhookSecret = "whsec_test_secret"

// signStripePayload produces a Stripe-Signature header value for the given
// payload, matching Stripe's v1 scheme: HMAC-SHA256 over "timestamp.payload".
func signStripePayload(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newTestStripeProvider(t *testing.T) *subscription.StripeProvider {
	t.Helper()
	p, err := subscription.NewStripeProvider(subscription.StripeConfig{
		APIKey:        "sk_test_123",
		WebhookSecret: testWebhookSecret,
	})
	require.NoError(t, err)
	return p
}

func TestNewStripeProvider_Validation(t *testing.T) {
	t.Parallel()

	_, err := subscription.NewStripeProvider(subscription.StripeConfig{WebhookSecret: "whsec"})
	assert.ErrorIs(t, err, subscription.ErrMissingAPIKey)

	_, err = subscription.NewStripeProvider(subscription.StripeConfig{APIKey: "sk_test"})
	assert.ErrorIs(t, err, subscription.ErrMissingWebhookSecret)
}

func TestStripeProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	t.Run("subscription created event", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`{
			"id": "evt_1",
			"type": "customer.subscription.created",
			"data": {
				"object": {
					"id": "sub_123",
					"customer": "cus_456",
					"status": "trialing",
					"current_period_start": 1754006400,
					"current_period_end": 1756684800,
					"cancel_at_period_end": false,
					"trial_start": 1754006400,
					"trial_end": 1755216000,
					"default_payment_method": "pm_789",
					"metadata": {"user_id": "7f9c24e5-2f13-4a4e-8f9d-1f2b3c4d5e6f", "plan_id": "price_pro_monthly"},
					"items": {"data": [{"price": {"id": "price_pro_monthly"}}]}
				}
			}
		}`)

		p := newTestStripeProvider(t)
		event, err := p.ParseWebhook(payload, signStripePayload(testWebhookSecret, payload))
		require.NoError(t, err)

		assert.Equal(t, subscription.EventSubscriptionCreated, event.Type)
		assert.Equal(t, "customer.subscription.created", event.ProviderEvent)
		require.NotNil(t, event.Subscription)
		assert.Nil(t, event.Invoice)

		data := event.Subscription
		assert.Equal(t, "sub_123", data.ProviderSubID)
		assert.Equal(t, "cus_456", data.ProviderCustomerID)
		assert.Equal(t, "trialing", data.Status)
		assert.Equal(t, "7f9c24e5-2f13-4a4e-8f9d-1f2b3c4d5e6f", data.UserID)
		assert.Equal(t, "price_pro_monthly", data.PlanID)
		assert.Equal(t, "pm_789", data.DefaultPaymentMethodID)
		assert.Equal(t, time.Unix(1754006400, 0).UTC(), data.CurrentPeriodStart)
		require.NotNil(t, data.TrialEnd)
		assert.Equal(t, time.Unix(1755216000, 0).UTC(), *data.TrialEnd)
		assert.Nil(t, data.CanceledAt)
	})

	t.Run("plan falls back to subscribed price without metadata", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`{
			"id": "evt_2",
			"type": "customer.subscription.updated",
			"data": {
				"object": {
					"id": "sub_123",
					"customer": "cus_456",
					"status": "active",
					"items": {"data": [{"price": {"id": "price_basic_monthly"}}]}
				}
			}
		}`)

		p := newTestStripeProvider(t)
		event, err := p.ParseWebhook(payload, signStripePayload(testWebhookSecret, payload))
		require.NoError(t, err)
		assert.Equal(t, subscription.EventSubscriptionUpdated, event.Type)
		assert.Equal(t, "price_basic_monthly", event.Subscription.PlanID)
		assert.Empty(t, event.Subscription.UserID)
	})

	t.Run("invoice payment succeeded event", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`{
			"id": "evt_3",
			"type": "invoice.payment_succeeded",
			"data": {
				"object": {
					"id": "in_001",
					"subscription": "sub_123",
					"amount_paid": 4900,
					"amount_due": 4900,
					"currency": "usd",
					"status": "paid",
					"hosted_invoice_url": "https://invoice.stripe.com/i/in_001",
					"invoice_pdf": "https://invoice.stripe.com/i/in_001/pdf"
				}
			}
		}`)

		p := newTestStripeProvider(t)
		event, err := p.ParseWebhook(payload, signStripePayload(testWebhookSecret, payload))
		require.NoError(t, err)

		assert.Equal(t, subscription.EventInvoicePaymentSucceeded, event.Type)
		require.NotNil(t, event.Invoice)
		assert.Nil(t, event.Subscription)
		assert.Equal(t, "in_001", event.Invoice.ProviderInvoiceID)
		assert.Equal(t, "sub_123", event.Invoice.ProviderSubID)
		assert.Equal(t, int64(4900), event.Invoice.AmountMinor)
		assert.Equal(t, "paid", event.Invoice.Status)
	})

	t.Run("tampered signature is rejected", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`{"id":"evt_4","type":"customer.subscription.created","data":{"object":{"id":"sub_x"}}}`)
		signature := signStripePayload(testWebhookSecret, payload)

		// Mutate the body after signing.
		tampered := []byte(`{"id":"evt_4","type":"customer.subscription.created","data":{"object":{"id":"sub_EVIL"}}}`)

		p := newTestStripeProvider(t)
		_, err := p.ParseWebhook(tampered, signature)
		assert.ErrorIs(t, err, subscription.ErrWebhookVerification)
	})

	t.Run("garbage signature header is rejected", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`{"id":"evt_5","type":"customer.subscription.created","data":{"object":{}}}`)

		p := newTestStripeProvider(t)
		_, err := p.ParseWebhook(payload, "t=123,v1=deadbeef")
		assert.ErrorIs(t, err, subscription.ErrWebhookVerification)
	})
}
