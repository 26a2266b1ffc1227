// Package subscription provides subscription management for the booking
// platform: plan catalogs, feature gating with usage metering, and
// reconciliation of payment-provider state via webhooks.
//
// Two cooperating pieces cover the subscription domain:
//
//   - Service is the feature-gate evaluator. Given a user and a named
//     feature it decides whether an action is permitted, by reading the
//     user's active subscription's plan and comparing feature values
//     against usage counted from operational tables.
//   - Reconciler is the billing-state mirror. It receives asynchronous
//     provider events (subscription lifecycle, invoice payments) and
//     writes them into local tables, which the evaluator reads on the
//     next request.
//
// The local database is never a source of truth for billing decisions,
// only for feature-gating reads. Subscriptions and invoices are mutated
// exclusively by the Reconciler; the Service never writes (free-plan
// activation in CreateCheckoutLink is the one exception, since free plans
// have no provider-side object to mirror).
//
// # Gate checks
//
//	svc, err := subscription.NewService(ctx, planSource, subStore,
//		subscription.WithCounter(subscription.FeatureAppointments, countMonthlyAppointments),
//		subscription.WithCounter(subscription.FeatureServices, countActiveServices),
//	)
//
//	if !svc.CanUse(ctx, userID, subscription.FeatureAppointments) {
//		// limit reached, show upgrade prompt
//	}
//
// Gate checks fail closed: any lookup error is indistinguishable from a
// policy denial at the boolean surface. CanUse is a check, not a
// reservation; concurrent callers racing for the last slot can both pass.
//
// # Webhook reconciliation
//
//	rec := subscription.NewReconciler(stripeProvider, subStore, invoiceStore,
//		subscription.WithPaymentMethodStore(pmStore),
//	)
//
//	// inside the webhook handler:
//	err := rec.HandleWebhook(ctx, body, r.Header.Get("Stripe-Signature"))
//
// Signature verification happens before any payload content is trusted.
// Subscription created/updated replays converge; invoice replays insert
// duplicate rows (the provider's delivery is at-least-once and invoice
// events carry no local dedup key). Errors propagate so the HTTP layer can
// answer non-2xx and rely on the provider's redelivery.
package subscription
