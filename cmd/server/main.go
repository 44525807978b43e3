package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	mqcontracts "hmadashboard/contracts/mq"
	"hmadashboard/internal/config"
	"hmadashboard/internal/handler"
	"hmadashboard/internal/httpserver"
	"hmadashboard/internal/mqhandler"
	"hmadashboard/internal/repository"
	"hmadashboard/internal/snapshot"
	"hmadashboard/internal/tracking"
	"hmadashboard/pkg/db"
	"hmadashboard/pkg/logger"
	"hmadashboard/pkg/mq"
	"hmadashboard/pkg/outbox"
	"hmadashboard/pkg/redis"
	"hmadashboard/pkg/util"
)

const requestApprovedQueue = "request.approved.q"

func main() {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log)
	defer log.Sync()

	log.Info("Starting project tracker...",
		zap.String("persistence_driver", cfg.Persistence.Driver),
		zap.String("assets_base_url", cfg.Assets.BaseURL),
		zap.Bool("mq_enabled", cfg.MQ.URL != ""),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis backs both the redis persistence driver and request dedup.
	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewRedisClient(cfg.Redis)
		defer rdb.Close()
	}

	// Key-value persistence
	var (
		kv     repository.KVStore
		dbConn *pgxpool.Pool
	)
	switch cfg.Persistence.Driver {
	case "redis":
		if rdb == nil {
			log.Fatal("Redis persistence selected but redis.addr is empty")
		}
		kv = repository.NewRedisKV(rdb, cfg.Persistence.KeyPrefix, log)
	case "postgres":
		dbConn, err = db.NewConnection(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer dbConn.Close()

		pgKV := repository.NewPostgresKV(dbConn, cfg.Persistence.KeyPrefix, log)
		if err := pgKV.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare kv_store", zap.Error(err))
		}
		kv = pgKV
	default:
		log.Warn("Using in-memory persistence, local changes are lost on restart")
		kv = repository.NewMemoryKV()
	}

	loader := snapshot.NewLoader(cfg.Assets.BaseURL, cfg.Assets.Timeout, log)

	opts := []tracking.Option{tracking.WithStrictPersistence(cfg.Persistence.Strict)}

	// MQ (optional)
	var (
		publisher   *mq.Publisher
		consumer    *mq.Consumer
		mqReadiness httpserver.Connectivity
	)
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init publisher", zap.Error(err))
		}
		defer publisher.Close()

		if dbConn != nil {
			// Events the broker rejects are parked in Postgres and retried.
			outboxRepo := outbox.NewRepository(dbConn)
			if err := outboxRepo.EnsureSchema(ctx); err != nil {
				log.Fatal("Failed to prepare outbox", zap.Error(err))
			}
			opts = append(opts, tracking.WithPublisher(outbox.NewFallbackPublisher(publisher, outboxRepo, log)))
			go outbox.NewDispatcher(outboxRepo, publisher, log).Start(ctx)
		} else {
			opts = append(opts, tracking.WithPublisher(publisher))
		}
	}

	store := tracking.New(kv, loader, log, opts...)
	store.Load(ctx)
	if st := store.Status(); st.Error != "" {
		log.Warn("Project data loaded with errors", zap.String("error", st.Error))
	}

	if cfg.MQ.URL != "" {
		log.Info("Initializing MQ consumer for request.approved...",
			zap.String("queue", requestApprovedQueue),
			zap.String("routing_key", mqcontracts.RoutingRequestApproved),
		)
		consumer, err = mq.NewConsumer(cfg.MQ.URL, requestApprovedQueue, mqcontracts.RoutingRequestApproved, log)
		if err != nil {
			log.Fatal("Failed to init consumer", zap.Error(err))
		}
		defer consumer.Close()

		if err := consumer.SetDeadLetter(publisher); err != nil {
			log.Warn("Dead letter queue unavailable, dropping unprocessable messages", zap.Error(err))
		}

		var (
			deduper *util.Deduper
			retries *util.RetryCounter
		)
		if rdb != nil {
			deduper = util.NewDeduper(rdb, cfg.DedupTTL, log)
			retries = util.NewRetryCounter(rdb, cfg.DedupTTL)
		}
		consumer.SetHandler(mqhandler.NewRequestApprovedHandler(store, deduper, retries, log).Handle)

		go func() {
			log.Info("Starting request.approved consumer...")
			if err := consumer.StartConsuming(); err != nil {
				log.Fatal("Request consumer failed", zap.Error(err))
			}
		}()
		mqReadiness = consumer
	}

	// HTTP Server
	router := httpserver.NewRouter(
		handler.NewProjectHandler(store, log),
		handler.NewMilestoneHandler(store, log),
		log,
		kv,
		mqReadiness,
	)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("Project tracker is fully initialized and running",
		zap.Int("projects", len(store.Projects())),
	)

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down project tracker gracefully...")

	if consumer != nil {
		log.Info("Stopping MQ consumer...")
		consumer.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("Project tracker shutdown complete")
}
