package subscription

import (
	"context"
	"time"
)

// BillingProvider is the minimal interface a payment provider integration
// must satisfy. The provider owns all payment complexity through hosted
// checkouts and customer portals; the application only mirrors state.
//
// Implementations must verify webhook signatures before trusting any
// payload content.
type BillingProvider interface {
	// CreateCheckoutLink creates a hosted checkout session for a plan.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// GetCustomerPortalLink returns a temporary link to the provider's
	// customer portal for the given subscription.
	GetCustomerPortalLink(ctx context.Context, sub *Subscription) (*PortalLink, error)

	// ParseWebhook verifies the signature against the raw payload and
	// returns the normalized event. Verification failures return an error
	// wrapping ErrWebhookVerification and must happen before any payload
	// field is interpreted.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID    string // provider's price identifier (Plan.ID for paid plans)
	UserID     string // internal user ID, carried in provider metadata
	PlanID     string // internal plan ID, carried in provider metadata
	Email      string // optional billing email
	SuccessURL string
	CancelURL  string
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL       string
	ExpiresAt time.Time
}

// WebhookEvent is a provider event normalized for the reconciler. Exactly
// one of Subscription or Invoice is set, matching the event type.
type WebhookEvent struct {
	Type          EventType
	ProviderEvent string // original provider event name
	Subscription  *SubscriptionEvent
	Invoice       *InvoiceEvent
}

// SubscriptionEvent carries the provider subscription fields the reconciler
// mirrors verbatim. UserID and PlanID come from event metadata and may be
// empty; the reconciler rejects inserts without them.
type SubscriptionEvent struct {
	ProviderSubID          string
	ProviderCustomerID     string
	Status                 string
	UserID                 string
	PlanID                 string
	CurrentPeriodStart     time.Time
	CurrentPeriodEnd       time.Time
	CancelAtPeriodEnd      bool
	TrialStart             *time.Time
	TrialEnd               *time.Time
	CanceledAt             *time.Time
	DefaultPaymentMethodID string // provider pm_xxx, resolved best-effort
}

// InvoiceEvent carries the provider invoice fields mirrored into local
// invoice rows. AmountMinor is the provider's integer minor-unit amount.
type InvoiceEvent struct {
	ProviderInvoiceID string
	ProviderSubID     string
	AmountMinor       int64
	Currency          string
	Status            string
	HostedInvoiceURL  string
	InvoicePDF        string
}
