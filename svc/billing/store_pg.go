package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/bookingkit/pkg/pg"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
)

// PgSubscriptionStore is the pgx-backed subscription.SubscriptionStore.
// A partial unique index on user_id (for gating statuses) keeps a user
// from ever holding two concurrently active subscriptions.
type PgSubscriptionStore struct {
	pool *pgxpool.Pool
}

func NewPgSubscriptionStore(pool *pgxpool.Pool) *PgSubscriptionStore {
	if pool == nil {
		panic("billing: pgx pool is required")
	}
	return &PgSubscriptionStore{pool: pool}
}

const subscriptionColumns = `id, user_id, company_id, plan_id, status, provider_sub_id, provider_customer_id,
	current_period_start, current_period_end, cancel_at_period_end, trial_start, trial_end,
	default_payment_method_id, created_at, updated_at, canceled_at`

func scanSubscription(row interface{ Scan(...any) error }) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.CompanyID, &s.PlanID, &s.Status, &s.ProviderSubID, &s.ProviderCustomerID,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.TrialStart, &s.TrialEnd,
		&s.DefaultPaymentMethodID, &s.CreatedAt, &s.UpdatedAt, &s.CanceledAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (st *PgSubscriptionStore) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	sub, err := scanSubscription(st.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1 AND status IN ('active', 'trialing')`,
		userID,
	))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}
	return sub, nil
}

func (st *PgSubscriptionStore) GetByProviderID(ctx context.Context, providerSubID string) (*subscription.Subscription, error) {
	sub, err := scanSubscription(st.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE provider_sub_id = $1`,
		providerSubID,
	))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription by provider id: %w", err)
	}
	return sub, nil
}

func (st *PgSubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	_, err := st.pool.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		sub.ID, sub.UserID, sub.CompanyID, sub.PlanID, sub.Status, sub.ProviderSubID, sub.ProviderCustomerID,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd, sub.TrialStart, sub.TrialEnd,
		sub.DefaultPaymentMethodID, sub.CreatedAt, sub.UpdatedAt, sub.CanceledAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return errors.Join(subscription.ErrSubscriptionAlreadyExists, err)
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (st *PgSubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	tag, err := st.pool.Exec(ctx, `
		UPDATE subscriptions SET
			user_id = $2, company_id = $3, plan_id = $4, status = $5, provider_sub_id = $6,
			provider_customer_id = $7, current_period_start = $8, current_period_end = $9,
			cancel_at_period_end = $10, trial_start = $11, trial_end = $12,
			default_payment_method_id = $13, updated_at = $14, canceled_at = $15
		WHERE id = $1`,
		sub.ID, sub.UserID, sub.CompanyID, sub.PlanID, sub.Status, sub.ProviderSubID,
		sub.ProviderCustomerID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd, sub.TrialStart, sub.TrialEnd,
		sub.DefaultPaymentMethodID, sub.UpdatedAt, sub.CanceledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

// PgInvoiceStore is the pgx-backed subscription.InvoiceStore. Rows are
// append-only; webhook replays insert duplicates and that is accepted.
type PgInvoiceStore struct {
	pool *pgxpool.Pool
}

func NewPgInvoiceStore(pool *pgxpool.Pool) *PgInvoiceStore {
	if pool == nil {
		panic("billing: pgx pool is required")
	}
	return &PgInvoiceStore{pool: pool}
}

func (st *PgInvoiceStore) Create(ctx context.Context, inv *subscription.Invoice) error {
	_, err := st.pool.Exec(ctx, `
		INSERT INTO subscription_invoices (id, subscription_id, provider_invoice_id, amount, currency, status, hosted_invoice_url, invoice_pdf, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.SubscriptionID, inv.ProviderInvoiceID, inv.Amount, inv.Currency, inv.Status,
		inv.HostedInvoiceURL, inv.InvoicePDF, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (st *PgInvoiceStore) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]subscription.Invoice, error) {
	rows, err := st.pool.Query(ctx, `
		SELECT id, subscription_id, provider_invoice_id, amount, currency, status, hosted_invoice_url, invoice_pdf, created_at
		FROM subscription_invoices
		WHERE subscription_id = $1
		ORDER BY created_at DESC`,
		subscriptionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []subscription.Invoice
	for rows.Next() {
		var inv subscription.Invoice
		if err := rows.Scan(
			&inv.ID, &inv.SubscriptionID, &inv.ProviderInvoiceID, &inv.Amount, &inv.Currency,
			&inv.Status, &inv.HostedInvoiceURL, &inv.InvoicePDF, &inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return invoices, nil
}

// PgPaymentMethodStore is the pgx-backed subscription.PaymentMethodStore.
type PgPaymentMethodStore struct {
	pool *pgxpool.Pool
}

func NewPgPaymentMethodStore(pool *pgxpool.Pool) *PgPaymentMethodStore {
	if pool == nil {
		panic("billing: pgx pool is required")
	}
	return &PgPaymentMethodStore{pool: pool}
}

func (st *PgPaymentMethodStore) GetByProviderID(ctx context.Context, providerPaymentMethodID string) (*subscription.PaymentMethod, error) {
	var pm subscription.PaymentMethod
	err := st.pool.QueryRow(ctx, `
		SELECT id, user_id, company_id, provider_payment_method_id, brand, last4, exp_month, exp_year, created_at
		FROM payment_methods
		WHERE provider_payment_method_id = $1`,
		providerPaymentMethodID,
	).Scan(&pm.ID, &pm.UserID, &pm.CompanyID, &pm.ProviderPaymentMethodID, &pm.Brand, &pm.Last4, &pm.ExpMonth, &pm.ExpYear, &pm.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	return &pm, nil
}
