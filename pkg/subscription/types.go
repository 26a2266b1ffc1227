package subscription

// Feature names the countable and boolean capabilities a booking plan can
// carry. Plans are free to define additional names; these constants cover
// the features the platform meters out of the box.
type Feature string

const (
	FeatureAppointments Feature = "appointments" // bookings per calendar month
	FeatureServices     Feature = "services"     // active service offerings
	FeatureFeatured     Feature = "featured"     // featured professional listing
	FeatureReminders    Feature = "reminders"    // grouped reminder channels
	FeatureAnalytics    Feature = "analytics"
	FeatureCustomDomain Feature = "custom_domain"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $10.99 USD would be Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"` // ISO 4217 code
}

// BillingInterval represents the billing frequency for a subscription plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // free plans with no billing
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// Status mirrors the payment provider's subscription status verbatim.
// The local database is a read replica of provider state: statuses are
// written only by the webhook reconciler and read by the feature gate.
type Status string

const (
	StatusTrialing   Status = "trialing"
	StatusActive     Status = "active"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusUnpaid     Status = "unpaid"
	StatusIncomplete Status = "incomplete"
	StatusExpired    Status = "expired"
)

// GatingStatuses are the statuses under which a subscription grants plan
// features. Trialing counts: trials expose the full plan until they lapse.
var GatingStatuses = []Status{StatusActive, StatusTrialing}

// EventType is the normalized billing event type. Provider implementations
// map their specific event names to these values.
type EventType string

const (
	EventSubscriptionCreated EventType = "subscription_created"
	EventSubscriptionUpdated EventType = "subscription_updated"
	EventSubscriptionDeleted EventType = "subscription_deleted"

	EventInvoicePaymentSucceeded EventType = "invoice_payment_succeeded"
	EventInvoicePaymentFailed    EventType = "invoice_payment_failed"
)
