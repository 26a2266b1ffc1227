package billing

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/bookingkit/pkg/email"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
)

// BillingEmailLookup resolves the email address the dunning notice goes
// to. The usual implementation asks the provider for the customer's
// billing email, there is no local user directory to consult.
type BillingEmailLookup func(ctx context.Context, sub *subscription.Subscription) (string, error)

// NewPaymentFailedNotifier builds the dunning hook the reconciler fires
// after recording a failed-payment invoice. Failures are logged and
// swallowed: a missed email must not make Stripe redeliver the event.
func NewPaymentFailedNotifier(sender email.EmailSender, lookup BillingEmailLookup, log *slog.Logger) subscription.PaymentFailedHook {
	if sender == nil {
		panic("billing: email sender is required")
	}
	if lookup == nil {
		panic("billing: user email lookup is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return func(ctx context.Context, sub *subscription.Subscription, inv *subscription.Invoice) {
		addr, err := lookup(ctx, sub)
		if err != nil {
			log.ErrorContext(ctx, "failed to resolve user email for dunning notice",
				logger.UserID(sub.UserID), logger.Error(err))
			return
		}

		params := email.SendEmailParams{
			SendTo:   addr,
			Subject:  "Payment failed for your subscription",
			BodyHTML: dunningBody(sub, inv),
			Tag:      "payment-failed",
		}
		if err := sender.SendEmail(ctx, params); err != nil {
			log.ErrorContext(ctx, "failed to send dunning notice",
				logger.UserID(sub.UserID), logger.Error(err))
		}
	}
}

func dunningBody(sub *subscription.Subscription, inv *subscription.Invoice) string {
	var b strings.Builder
	b.WriteString("<p>We could not collect payment for your subscription.</p>")
	fmt.Fprintf(&b, "<p>Amount due: %.2f %s</p>", inv.Amount, html.EscapeString(strings.ToUpper(inv.Currency)))
	if inv.HostedInvoiceURL != "" {
		fmt.Fprintf(&b, `<p><a href="%s">View and pay the invoice</a></p>`, html.EscapeString(inv.HostedInvoiceURL))
	}
	b.WriteString("<p>Please update your payment method to keep your plan features active.</p>")
	return b.String()
}
