package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contribfest/participation/internal/activity"
	"github.com/contribfest/participation/internal/cache"
	"github.com/contribfest/participation/internal/campaign"
	"github.com/contribfest/participation/internal/database"
	apperrors "github.com/contribfest/participation/internal/errors"
	"github.com/contribfest/participation/internal/health"
	"github.com/contribfest/participation/internal/notify"
	"github.com/contribfest/participation/internal/participation"
	"github.com/contribfest/participation/internal/repository"
	"github.com/contribfest/participation/internal/segment"
	"github.com/contribfest/participation/internal/shutdown"
	"github.com/contribfest/participation/pkg/config"
	"github.com/contribfest/participation/pkg/graceful"
	"github.com/contribfest/participation/pkg/logger"
	"github.com/contribfest/participation/pkg/metrics"
	pkgredis "github.com/contribfest/participation/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("participation service exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	log.Info("starting participation service",
		slog.String("campaign", cfg.Campaign.Name),
		slog.String("ops_addr", cfg.Ops.Addr))

	coordinator := shutdown.NewCoordinator(log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Ops.ShutdownTimeout)
		defer cancel()

		if err := coordinator.Execute(shutdownCtx); err != nil {
			log.Error("shutdown finished with errors", slog.Any("error", err))
		}
	}()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	coordinator.Register("postgres", func(context.Context) error { return db.Close() })

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := database.NewMigrator(db, log).ApplyDir(ctx, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	rcfg := pkgredis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}

	rdb, err := pkgredis.New(ctx, rcfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	coordinator.Register("redis", func(context.Context) error { return rdb.Close() })

	store := pkgredis.NewMetricsClient(rdb)

	start, end, err := cfg.Campaign.Window()
	if err != nil {
		return fmt.Errorf("campaign window: %w", err)
	}
	calendar := campaign.NewCalendar(campaign.Campaign{
		Name:  cfg.Campaign.Name,
		Start: start,
		End:   end,
	})

	// Operators move the campaign window by editing the config file; the
	// calendar picks the change up without a restart.
	config.Watch(v, log, func(next *config.Config) {
		nextStart, nextEnd, err := next.Campaign.Window()
		if err != nil {
			log.Error("ignoring campaign window update", slog.Any("error", err))
			return
		}

		calendar.Replace(campaign.Campaign{
			Name:  next.Campaign.Name,
			Start: nextStart,
			End:   nextEnd,
		})
		log.Info("campaign window updated",
			slog.String("campaign", next.Campaign.Name),
			slog.Time("start", nextStart),
			slog.Time("end", nextEnd))
	})

	queue := notify.NewQueue(rcfg.AsynqOpt())
	coordinator.Register("notify-queue", func(context.Context) error { return queue.Close() })

	notifier := notify.NewTaskNotifier(queue, log)
	segments := segment.NewRedisUpdater(rdb.Client, log)
	counter := activity.NewRedisCounter(store)
	participantCache := cache.NewCache(store, cache.DefaultTTL)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)
	repo := repository.NewParticipantRepository(db, log)

	svc := participation.NewService(repo, participantCache, counter, calendar, notifier, segments, errHandler, log)

	go metrics.NewCollector(svc, segments).Run(ctx)

	checker := health.NewChecker(log)
	checker.AddCheck("postgres", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(rdb))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())

	srv := graceful.NewServer(log, &http.Server{
		Addr:              cfg.Ops.Addr,
		Handler:           logger.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.Ops.ShutdownTimeout)

	return srv.ListenAndServe(ctx)
}
