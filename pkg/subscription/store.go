package subscription

import (
	"context"

	"github.com/google/uuid"
)

// SubscriptionStore persists subscription rows. The reconciler is the only
// writer; the feature gate and HTTP surfaces only read.
type SubscriptionStore interface {
	// GetActiveByUser returns the user's single subscription in a gating
	// status (active or trialing). Returns ErrSubscriptionNotFound when
	// the user has none.
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// GetByProviderID returns the subscription mirroring the given
	// provider subscription ID, regardless of status.
	// Returns ErrSubscriptionNotFound when no local row exists.
	GetByProviderID(ctx context.Context, providerSubID string) (*Subscription, error)

	// Create inserts a new subscription row.
	Create(ctx context.Context, sub *Subscription) error

	// Update rewrites an existing subscription row by ID.
	Update(ctx context.Context, sub *Subscription) error
}

// InvoiceStore persists invoice rows. Invoices are append-only: the
// reconciler inserts, nothing updates or deletes.
type InvoiceStore interface {
	Create(ctx context.Context, inv *Invoice) error
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]Invoice, error)
}

// PaymentMethodStore resolves locally-known payment methods by the
// provider's payment method ID.
type PaymentMethodStore interface {
	GetByProviderID(ctx context.Context, providerPaymentMethodID string) (*PaymentMethod, error)
}
