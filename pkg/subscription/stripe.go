package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	APIKey        string `env:"STRIPE_API_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements BillingProvider using the Stripe API.
// Checkout sessions carry user_id and plan_id in subscription metadata so
// webhook events can be correlated back to local rows.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider configures the Stripe SDK and returns a provider.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	stripe.Key = cfg.APIKey

	return &StripeProvider{webhookSecret: cfg.WebhookSecret}, nil
}

// CreateCheckoutLink creates a hosted Stripe Checkout session in
// subscription mode for the plan's price.
func (p *StripeProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.UserID == "" {
		return nil, errors.New("user ID is required")
	}

	metadata := map[string]string{
		"user_id": req.UserID,
		"plan_id": req.PlanID,
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
		Metadata: metadata,
	}
	params.Context = ctx
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       sess.URL,
		SessionID: sess.ID,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0).UTC(),
	}, nil
}

// GetCustomerPortalLink returns a Stripe billing portal session for the
// subscription's customer.
func (p *StripeProvider) GetCustomerPortalLink(ctx context.Context, sub *Subscription) (*PortalLink, error) {
	if sub == nil || sub.ProviderCustomerID == "" {
		return nil, errors.New("provider customer ID is required")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer: stripe.String(sub.ProviderCustomerID),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe portal session: %w", err)
	}
	if sess.URL == "" {
		return nil, ErrNoPortalURL
	}

	// Portal links are short-lived on Stripe's side.
	return &PortalLink{
		URL:       sess.URL,
		ExpiresAt: time.Now().Add(24 * time.Hour).UTC(),
	}, nil
}

// CustomerEmail fetches the billing email for a provider customer. Used
// by the dunning notifier, which has no local user directory to consult.
func (p *StripeProvider) CustomerEmail(ctx context.Context, providerCustomerID string) (string, error) {
	if providerCustomerID == "" {
		return "", errors.New("provider customer ID is required")
	}

	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := customer.Get(providerCustomerID, params)
	if err != nil {
		return "", fmt.Errorf("failed to fetch stripe customer: %w", err)
	}
	return c.Email, nil
}

// ParseWebhook verifies the Stripe-Signature header against the raw body
// and normalizes the event. Tampered or unsigned payloads fail here, before
// any field of the payload is interpreted.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{
			// Events keep the API version of the endpoint that registered
			// them; mirroring does not depend on a pinned version.
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, errors.Join(ErrWebhookVerification, err)
	}

	normalized := &WebhookEvent{
		Type:          mapStripeEventType(string(event.Type)),
		ProviderEvent: string(event.Type),
	}

	switch normalized.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		sub, err := parseStripeSubscription(event.Data.Raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse subscription event: %w", err)
		}
		normalized.Subscription = sub
	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		inv, err := parseStripeInvoice(event.Data.Raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse invoice event: %w", err)
		}
		normalized.Invoice = inv
	}

	return normalized, nil
}

func mapStripeEventType(stripeEvent string) EventType {
	switch stripeEvent {
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	case "invoice.payment_succeeded":
		return EventInvoicePaymentSucceeded
	case "invoice.payment_failed":
		return EventInvoicePaymentFailed
	default:
		// Unmapped events pass through and are ignored by the reconciler.
		return EventType(stripeEvent)
	}
}

// stripeSubscriptionPayload decodes the subscription object fields the
// reconciler mirrors. Expandable references (customer, default payment
// method) serialize as plain IDs in webhook payloads.
type stripeSubscriptionPayload struct {
	ID                   string            `json:"id"`
	Customer             string            `json:"customer"`
	Status               string            `json:"status"`
	CurrentPeriodStart   int64             `json:"current_period_start"`
	CurrentPeriodEnd     int64             `json:"current_period_end"`
	CancelAtPeriodEnd    bool              `json:"cancel_at_period_end"`
	CanceledAt           int64             `json:"canceled_at"`
	TrialStart           int64             `json:"trial_start"`
	TrialEnd             int64             `json:"trial_end"`
	DefaultPaymentMethod string            `json:"default_payment_method"`
	Metadata             map[string]string `json:"metadata"`
	Items                struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func parseStripeSubscription(raw json.RawMessage) (*SubscriptionEvent, error) {
	var payload stripeSubscriptionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	data := &SubscriptionEvent{
		ProviderSubID:          payload.ID,
		ProviderCustomerID:     payload.Customer,
		Status:                 payload.Status,
		UserID:                 payload.Metadata["user_id"],
		PlanID:                 payload.Metadata["plan_id"],
		CurrentPeriodStart:     time.Unix(payload.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:       time.Unix(payload.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:      payload.CancelAtPeriodEnd,
		TrialStart:             unixPtr(payload.TrialStart),
		TrialEnd:               unixPtr(payload.TrialEnd),
		CanceledAt:             unixPtr(payload.CanceledAt),
		DefaultPaymentMethodID: payload.DefaultPaymentMethod,
	}

	// Fall back to the subscribed price when metadata carries no plan ID;
	// paid plan IDs are Stripe price IDs.
	if data.PlanID == "" && len(payload.Items.Data) > 0 {
		data.PlanID = payload.Items.Data[0].Price.ID
	}

	return data, nil
}

type stripeInvoicePayload struct {
	ID               string `json:"id"`
	Subscription     string `json:"subscription"`
	AmountPaid       int64  `json:"amount_paid"`
	AmountDue        int64  `json:"amount_due"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
	InvoicePDF       string `json:"invoice_pdf"`
}

func parseStripeInvoice(raw json.RawMessage) (*InvoiceEvent, error) {
	var payload stripeInvoicePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	amount := payload.AmountPaid
	if amount == 0 {
		amount = payload.AmountDue
	}

	return &InvoiceEvent{
		ProviderInvoiceID: payload.ID,
		ProviderSubID:     payload.Subscription,
		AmountMinor:       amount,
		Currency:          payload.Currency,
		Status:            payload.Status,
		HostedInvoiceURL:  payload.HostedInvoiceURL,
		InvoicePDF:        payload.InvoicePDF,
	}, nil
}

func unixPtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
