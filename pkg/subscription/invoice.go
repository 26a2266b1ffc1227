package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is a local copy of one provider invoice, written append-only by
// the webhook reconciler. Amount is stored in major currency units: the
// provider reports integer minor units and the reconciler divides by 100.
type Invoice struct {
	ID                uuid.UUID
	SubscriptionID    uuid.UUID
	ProviderInvoiceID string
	Amount            float64
	Currency          string
	Status            string // provider status verbatim: paid, open, uncollectible, ...
	HostedInvoiceURL  string
	InvoicePDF        string
	CreatedAt         time.Time
}

// PaymentMethod is a local reference to a provider-side payment method,
// used for default-payment bookkeeping on subscriptions.
type PaymentMethod struct {
	ID                      uuid.UUID
	UserID                  uuid.UUID
	CompanyID               *uuid.UUID
	ProviderPaymentMethodID string // pm_xxx
	Brand                   string
	Last4                   string
	ExpMonth                int
	ExpYear                 int
	CreatedAt               time.Time
}
