package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	accountmod "github.com/dmitrymomot/memberhub/modules/account"
	billingmod "github.com/dmitrymomot/memberhub/modules/billing"
	"github.com/dmitrymomot/memberhub/pkg/billing"
	"github.com/dmitrymomot/memberhub/pkg/community"
	"github.com/dmitrymomot/memberhub/pkg/config"
	"github.com/dmitrymomot/memberhub/pkg/email"
	"github.com/dmitrymomot/memberhub/pkg/httpserver"
	"github.com/dmitrymomot/memberhub/pkg/logger"
	"github.com/dmitrymomot/memberhub/pkg/pg"
	"github.com/dmitrymomot/memberhub/pkg/queue"
	redisconn "github.com/dmitrymomot/memberhub/pkg/redis"
	"github.com/dmitrymomot/memberhub/pkg/requestid"
	"github.com/dmitrymomot/memberhub/pkg/session"
	"github.com/dmitrymomot/memberhub/pkg/tier"
	"github.com/dmitrymomot/memberhub/svc/content"
	"github.com/dmitrymomot/memberhub/svc/membership"
)

type appConfig struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	TiersPath string `env:"TIERS_CONFIG_PATH" envDefault:"config/tiers.yaml"`
	// DevEmailDir switches outgoing email to files on disk when Postmark
	// credentials are absent.
	DevEmailDir string `env:"DEV_EMAIL_DIR" envDefault:"./tmp/emails"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var appCfg appConfig
	config.MustLoad(&appCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, "memberhub"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	var redisCfg redisconn.Config
	config.MustLoad(&redisCfg)
	redisClient, err := redisconn.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var sessionCfg session.Config
	config.MustLoad(&sessionCfg)
	sessions, err := session.NewManager(session.NewRedisStore(redisClient), sessionCfg)
	if err != nil {
		return err
	}

	tiers, err := tier.NewRegistry(ctx, tier.NewYAMLSource(appCfg.TiersPath))
	if err != nil {
		return err
	}

	var billingCfg billing.Config
	config.MustLoad(&billingCfg)
	provider, err := billing.NewProvider(billingCfg)
	if err != nil {
		return err
	}

	taskStore, err := queue.NewPostgresStorage(pool)
	if err != nil {
		return err
	}
	enqueuer, err := queue.NewEnqueuer(taskStore)
	if err != nil {
		return err
	}
	gateway, err := community.NewQueueGateway(enqueuer, log)
	if err != nil {
		return err
	}

	communityHandler, err := community.NewMembershipTaskHandler(community.NewLogClient(log))
	if err != nil {
		return err
	}
	var queueCfg queue.Config
	config.MustLoad(&queueCfg)
	worker, err := queue.NewWorker(taskStore,
		queue.WithQueues(community.QueueName),
		queue.WithPollInterval(queueCfg.PollInterval),
		queue.WithLockTimeout(queueCfg.LockTimeout),
		queue.WithMaxConcurrentTasks(queueCfg.MaxConcurrentTasks),
		queue.WithWorkerLogger(log),
	)
	if err != nil {
		return err
	}
	worker.RegisterHandlers(communityHandler)

	mailer := newMailer(appCfg, log)

	var checkoutURLs membership.CheckoutURLs
	config.MustLoad(&checkoutURLs)

	membershipSvc := membership.NewService(tiers, provider,
		membership.NewPGUserStore(pool), membership.NewPGEventStore(pool), gateway, log,
		membership.WithMailer(mailer),
		membership.WithCheckoutURLs(checkoutURLs),
	)

	gate := content.NewGate(content.NewPGContentStore(pool), content.NewPGEnrollmentStore(pool), log)

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Get("/health", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool), redisconn.Healthcheck(redisClient)))
	router.Route("/api", func(r chi.Router) {
		accountmod.NewModule(membershipSvc, sessions, log).Register(r)
		billingmod.NewModule(provider, membershipSvc, gate, tiers, sessions, log).Register(r)
	})

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)
	server := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(ctx))
	g.Go(func() error {
		return server.Run(ctx, router)
	})
	return g.Wait()
}

// newMailer picks Postmark when credentials are configured and falls back
// to the on-disk dev sender otherwise.
func newMailer(appCfg appConfig, log *slog.Logger) email.EmailSender {
	var emailCfg email.Config
	if err := config.Load(&emailCfg); err != nil || emailCfg.PostmarkServerToken == "" {
		log.Info("postmark not configured, writing emails to disk",
			slog.String("dir", appCfg.DevEmailDir))
		return email.NewDevSender(appCfg.DevEmailDir)
	}
	sender, err := email.NewPostmarkClient(emailCfg)
	if err != nil {
		log.Warn("failed to init postmark, writing emails to disk",
			slog.String("error", err.Error()))
		return email.NewDevSender(appCfg.DevEmailDir)
	}
	return sender
}
