package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PaymentFailedHook runs after a failed-payment invoice has been recorded.
// The reconciler ignores hook errors: dunning is best-effort and must not
// make the provider redeliver an already-mirrored event.
type PaymentFailedHook func(ctx context.Context, sub *Subscription, inv *Invoice)

// Reconciler mirrors provider subscription and invoice state into the
// local database, driven by inbound webhook events. The local tables are a
// read replica of provider state: billing decisions always belong to the
// provider, local rows exist only so feature gating can read them.
//
// Created/updated events converge under replay because both resolve to an
// existence check on the provider subscription ID. Invoice events are not
// deduplicated: replaying a payment event inserts a duplicate invoice row.
type Reconciler struct {
	provider       BillingProvider
	subs           SubscriptionStore
	invoices       InvoiceStore
	paymentMethods PaymentMethodStore
	onFailed       PaymentFailedHook
	log            *slog.Logger
	now            func() time.Time
}

// NewReconciler wires a webhook reconciler. The payment method store is
// optional: without one, default payment method references stay null.
func NewReconciler(provider BillingProvider, subs SubscriptionStore, invoices InvoiceStore, opts ...ReconcilerOption) *Reconciler {
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}
	if subs == nil {
		panic("subscription: SubscriptionStore is required")
	}
	if invoices == nil {
		panic("subscription: InvoiceStore is required")
	}

	r := &Reconciler{
		provider: provider,
		subs:     subs,
		invoices: invoices,
		log:      slog.New(slog.DiscardHandler),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleWebhook verifies and applies one provider event. Signature
// verification happens inside the provider before any payload content is
// trusted; verification failures never touch the database.
//
// Errors are returned so the HTTP layer can answer non-2xx and lean on the
// provider's redelivery: there is no local retry or dead-letter path.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := r.provider.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return r.applySubscription(ctx, event)
	case EventSubscriptionDeleted:
		return r.applySubscriptionDeleted(ctx, event)
	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		return r.applyInvoice(ctx, event)
	default:
		// Unhandled event types are acknowledged so the provider stops
		// redelivering them.
		r.log.DebugContext(ctx, "ignoring webhook event",
			slog.String("event", event.ProviderEvent))
		return nil
	}
}

// applySubscription handles created and updated events with the same
// upsert-like logic, which also makes out-of-order created/updated pairs
// harmless: whichever arrives first inserts, the other updates.
func (r *Reconciler) applySubscription(ctx context.Context, event *WebhookEvent) error {
	data := event.Subscription
	if data == nil {
		return fmt.Errorf("%w: event %s has no subscription payload", ErrMissingEventMetadata, event.ProviderEvent)
	}

	existing, err := r.subs.GetByProviderID(ctx, data.ProviderSubID)
	switch {
	case err == nil:
		return r.updateSubscription(ctx, existing, data)
	case errors.Is(err, ErrSubscriptionNotFound):
		return r.insertSubscription(ctx, data)
	default:
		return fmt.Errorf("failed to look up subscription %s: %w", data.ProviderSubID, err)
	}
}

func (r *Reconciler) insertSubscription(ctx context.Context, data *SubscriptionEvent) error {
	// New rows need correlation metadata the provider only carries if
	// checkout attached it. Without it the event is rejected so the
	// provider retries once the metadata problem is fixed.
	if data.UserID == "" || data.PlanID == "" {
		return fmt.Errorf("%w: subscription %s", ErrMissingEventMetadata, data.ProviderSubID)
	}
	userID, err := uuid.Parse(data.UserID)
	if err != nil {
		return fmt.Errorf("%w: invalid user ID %q", ErrMissingEventMetadata, data.UserID)
	}

	now := r.now()
	sub := &Subscription{
		ID:                     uuid.New(),
		UserID:                 userID,
		PlanID:                 data.PlanID,
		Status:                 Status(data.Status),
		ProviderSubID:          data.ProviderSubID,
		ProviderCustomerID:     data.ProviderCustomerID,
		CurrentPeriodStart:     data.CurrentPeriodStart,
		CurrentPeriodEnd:       data.CurrentPeriodEnd,
		CancelAtPeriodEnd:      data.CancelAtPeriodEnd,
		TrialStart:             data.TrialStart,
		TrialEnd:               data.TrialEnd,
		CanceledAt:             data.CanceledAt,
		DefaultPaymentMethodID: r.resolvePaymentMethod(ctx, data.DefaultPaymentMethodID),
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := r.subs.Create(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription %s: %w", data.ProviderSubID, err)
	}
	r.log.InfoContext(ctx, "subscription created",
		slog.String("provider_sub_id", data.ProviderSubID),
		slog.String("user_id", data.UserID),
		slog.String("status", data.Status))
	return nil
}

func (r *Reconciler) updateSubscription(ctx context.Context, sub *Subscription, data *SubscriptionEvent) error {
	sub.Status = Status(data.Status)
	sub.CurrentPeriodStart = data.CurrentPeriodStart
	sub.CurrentPeriodEnd = data.CurrentPeriodEnd
	sub.CancelAtPeriodEnd = data.CancelAtPeriodEnd
	sub.TrialStart = data.TrialStart
	sub.TrialEnd = data.TrialEnd
	sub.CanceledAt = data.CanceledAt
	if data.PlanID != "" {
		sub.PlanID = data.PlanID
	}
	if data.ProviderCustomerID != "" {
		sub.ProviderCustomerID = data.ProviderCustomerID
	}
	if pm := r.resolvePaymentMethod(ctx, data.DefaultPaymentMethodID); pm != nil {
		sub.DefaultPaymentMethodID = pm
	}
	sub.UpdatedAt = r.now()

	if err := r.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription %s: %w", data.ProviderSubID, err)
	}
	r.log.InfoContext(ctx, "subscription updated",
		slog.String("provider_sub_id", data.ProviderSubID),
		slog.String("status", data.Status))
	return nil
}

// applySubscriptionDeleted marks the terminal state. The row is kept as
// append-only history, never deleted.
func (r *Reconciler) applySubscriptionDeleted(ctx context.Context, event *WebhookEvent) error {
	data := event.Subscription
	if data == nil {
		return fmt.Errorf("%w: event %s has no subscription payload", ErrMissingEventMetadata, event.ProviderEvent)
	}

	sub, err := r.subs.GetByProviderID(ctx, data.ProviderSubID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return fmt.Errorf("%w: subscription %s", ErrUnknownProviderObject, data.ProviderSubID)
		}
		return fmt.Errorf("failed to look up subscription %s: %w", data.ProviderSubID, err)
	}

	now := r.now()
	sub.Status = StatusCanceled
	if data.CanceledAt != nil {
		sub.CanceledAt = data.CanceledAt
	} else {
		sub.CanceledAt = &now
	}
	sub.UpdatedAt = now

	if err := r.subs.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to cancel subscription %s: %w", data.ProviderSubID, err)
	}
	r.log.InfoContext(ctx, "subscription canceled",
		slog.String("provider_sub_id", data.ProviderSubID))
	return nil
}

// applyInvoice appends a local invoice row for payment events. A missing
// local subscription is a client error: the provider retries, and the
// subscription.created event usually lands in between.
func (r *Reconciler) applyInvoice(ctx context.Context, event *WebhookEvent) error {
	data := event.Invoice
	if data == nil {
		return fmt.Errorf("%w: event %s has no invoice payload", ErrMissingEventMetadata, event.ProviderEvent)
	}

	sub, err := r.subs.GetByProviderID(ctx, data.ProviderSubID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return fmt.Errorf("%w: subscription %s for invoice %s", ErrUnknownProviderObject, data.ProviderSubID, data.ProviderInvoiceID)
		}
		return fmt.Errorf("failed to look up subscription %s: %w", data.ProviderSubID, err)
	}

	inv := &Invoice{
		ID:                uuid.New(),
		SubscriptionID:    sub.ID,
		ProviderInvoiceID: data.ProviderInvoiceID,
		Amount:            float64(data.AmountMinor) / 100,
		Currency:          data.Currency,
		Status:            data.Status,
		HostedInvoiceURL:  data.HostedInvoiceURL,
		InvoicePDF:        data.InvoicePDF,
		CreatedAt:         r.now(),
	}
	if err := r.invoices.Create(ctx, inv); err != nil {
		return fmt.Errorf("failed to save invoice %s: %w", data.ProviderInvoiceID, err)
	}
	r.log.InfoContext(ctx, "invoice recorded",
		slog.String("provider_invoice_id", data.ProviderInvoiceID),
		slog.String("status", data.Status),
		slog.Float64("amount", inv.Amount))

	if event.Type == EventInvoicePaymentFailed && r.onFailed != nil {
		r.onFailed(ctx, sub, inv)
	}
	return nil
}

// resolvePaymentMethod maps a provider payment method ID onto a local row.
// Best-effort: lookups that miss or fail leave the reference null.
func (r *Reconciler) resolvePaymentMethod(ctx context.Context, providerPMID string) *uuid.UUID {
	if providerPMID == "" || r.paymentMethods == nil {
		return nil
	}
	pm, err := r.paymentMethods.GetByProviderID(ctx, providerPMID)
	if err != nil {
		if !errors.Is(err, ErrPaymentMethodNotFound) {
			r.log.WarnContext(ctx, "payment method lookup failed",
				slog.String("provider_pm_id", providerPMID),
				slog.Any("error", err))
		}
		return nil
	}
	id := pm.ID
	return &id
}
