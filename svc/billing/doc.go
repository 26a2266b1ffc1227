// Package billing assembles the subscription machinery into a running
// service: pgx-backed stores, usage counters with a Redis cache, the
// feature-gate middleware, the Stripe webhook endpoint, and the dunning
// notifier for failed payments.
package billing
