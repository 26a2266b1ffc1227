package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/bookingkit/pkg/auth"
	"github.com/dmitrymomot/bookingkit/pkg/config"
	"github.com/dmitrymomot/bookingkit/pkg/email"
	"github.com/dmitrymomot/bookingkit/pkg/httpserver"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
	"github.com/dmitrymomot/bookingkit/pkg/pg"
	"github.com/dmitrymomot/bookingkit/pkg/redis"
	"github.com/dmitrymomot/bookingkit/pkg/requestid"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/svc/billing"
	"github.com/dmitrymomot/bookingkit/svc/booking"
)

type appConfig struct {
	PlansPath       string        `env:"PLANS_PATH" envDefault:"config/plans.yml"`
	UsageCacheTTL   time.Duration `env:"USAGE_CACHE_TTL" envDefault:"30s"`
	EmailDevDir     string        `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
	DunningDisabled bool          `env:"DUNNING_DISABLED" envDefault:"false"`
}

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg,
		logger.WithContextExtractors(requestid.LoggerExtractor()))
	logger.SetAsDefault(log)

	if err := run(ctx, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		appCfg    appConfig
		pgCfg     pg.Config
		redisCfg  redis.Config
		httpCfg   httpserver.Config
		authCfg   auth.Config
		stripeCfg subscription.StripeConfig
		emailCfg  email.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&authCfg)
	config.MustLoad(&stripeCfg)
	config.MustLoad(&emailCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	provider, err := subscription.NewStripeProvider(stripeCfg)
	if err != nil {
		return err
	}

	subStore := billing.NewPgSubscriptionStore(pool)
	invoiceStore := billing.NewPgInvoiceStore(pool)
	pmStore := billing.NewPgPaymentMethodStore(pool)
	bookingRepo := booking.NewRepository(pool)

	plans := subscription.NewYAMLSource(appCfg.PlansPath)

	svc, err := subscription.NewService(ctx, plans, subStore,
		subscription.WithBillingProvider(provider),
		subscription.WithLogger(log),
		subscription.WithCounter(subscription.FeatureAppointments,
			billing.CachedCounter(redisClient, subscription.FeatureAppointments, appCfg.UsageCacheTTL,
				billing.NewAppointmentsCounter(bookingRepo))),
		subscription.WithCounter(subscription.FeatureServices,
			billing.CachedCounter(redisClient, subscription.FeatureServices, appCfg.UsageCacheTTL,
				billing.NewServicesCounter(bookingRepo))),
	)
	if err != nil {
		return err
	}

	reconcilerOpts := []subscription.ReconcilerOption{
		subscription.WithPaymentMethodStore(pmStore),
		subscription.WithReconcilerLogger(log),
	}
	if !appCfg.DunningDisabled {
		sender := newEmailSender(emailCfg, appCfg.EmailDevDir)
		reconcilerOpts = append(reconcilerOpts, subscription.WithPaymentFailedHook(
			billing.NewPaymentFailedNotifier(sender,
				func(ctx context.Context, sub *subscription.Subscription) (string, error) {
					return provider.CustomerEmail(ctx, sub.ProviderCustomerID)
				}, log),
		))
	}
	reconciler := subscription.NewReconciler(provider, subStore, invoiceStore, reconcilerOpts...)

	tokens, err := auth.NewService(authCfg)
	if err != nil {
		return err
	}

	billingRouter := billing.NewRouter(reconciler, svc, auth.Middleware(tokens),
		billing.WithRouterLogger(log))

	root := chi.NewRouter()
	root.Use(requestid.Middleware)
	root.Get("/healthz", httpserver.HealthCheckHandler(log))
	root.Get("/readyz", httpserver.HealthCheckHandler(log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))
	root.Mount("/", billingRouter.Handler())

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, root)
}

// newEmailSender prefers Postmark and falls back to the file-based dev
// sender when no server token is configured.
func newEmailSender(cfg email.Config, devDir string) email.EmailSender {
	if cfg.PostmarkServerToken != "" {
		return email.MustNewPostmarkClient(cfg)
	}
	return email.NewDevSender(devDir)
}
