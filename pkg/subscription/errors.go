package subscription

import "errors"

var (
	ErrPlanNotFound             = errors.New("subscription plan not found")
	ErrInvalidPlanConfiguration = errors.New("invalid subscription plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load subscription plans")

	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")

	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")

	ErrNoCounterRegistered = errors.New("no usage counter registered for feature")
	ErrFailedToCountUsage  = errors.New("failed to count feature usage")
	ErrFeatureNotIncluded  = errors.New("feature not included in plan")

	// Reconciler errors. Both map to client errors at the HTTP surface so
	// the provider retries with a corrected or later-ordered delivery.
	ErrWebhookVerification   = errors.New("webhook signature verification failed")
	ErrMissingEventMetadata  = errors.New("webhook event is missing user or plan metadata")
	ErrUnknownProviderObject = errors.New("webhook event references an unknown provider object")

	// Provider configuration errors.
	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrNoCheckoutURL        = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL          = errors.New("no portal URL returned from provider")
	ErrNoPortalForFreePlan  = errors.New("no customer portal available for free plans")
)
