package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"group-order-bot/internal/catalog"
	"group-order-bot/internal/config"
	"group-order-bot/internal/database"
	"group-order-bot/internal/ledger"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/messaging"
	"group-order-bot/internal/metrics"
	"group-order-bot/internal/platform"
	"group-order-bot/internal/recommend"
	"group-order-bot/internal/services/bot"
	"group-order-bot/internal/services/recommendapi"
	"group-order-bot/internal/session"
)

func main() {
	var (
		mode           = flag.String("mode", "", "Service mode (bot-service, recommend-api, seed)")
		port           = flag.Int("port", 0, "HTTP port (default 5000 for bot-service, 5001 for recommend-api)")
		configPath     = flag.String("config", "config.yaml", "Path to config file")
		migrationsPath = flag.String("migrations", "migrations", "Path to migrations directory")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "bot-service":
		if err := runBotService(ctx, cfg, log, portOr(*port, 5000), *migrationsPath); err != nil {
			log.Error("service_failed", "Bot service failed", requestID, err, nil)
			os.Exit(1)
		}
	case "recommend-api":
		if err := runRecommendAPI(ctx, cfg, log, portOr(*port, 5001), *migrationsPath); err != nil {
			log.Error("service_failed", "Recommend API failed", requestID, err, nil)
			os.Exit(1)
		}
	case "seed":
		if err := runSeed(ctx, cfg, log, *migrationsPath); err != nil {
			log.Error("service_failed", "Seed failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

func portOr(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}

// runBotService runs the chat-facing webhook service.
func runBotService(ctx context.Context, cfg *config.Config, log *logger.Logger, port int, migrationsPath string) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m := metrics.NewRegistry()
	cat := catalog.NewPostgresStore(db, log)
	led := ledger.NewPostgresLedger(db, log)

	// The summary publisher is optional: without a broker the close-out
	// summary is still delivered to the chat, just not published.
	var publisher bot.EventPublisher
	if cfg.RabbitMQ.Host != "" {
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
		publisher = messaging.NewPublisher(conn, log)
	}

	client := platform.NewClient(cfg.Platform, log)
	var names platform.NameResolver = platform.NewResolver(client, log)
	if cfg.Redis.Addr != "" {
		rdb, err := platform.NewRedisClient(cfg.Redis)
		if err != nil {
			// Degraded but functional: names come straight from the
			// platform API on every join.
			log.Error("redis_connection_failed", "Display-name cache disabled", requestID, err, nil)
		} else {
			defer rdb.Close()
			log.Info("redis_connected", "Connected to Redis", requestID, nil)
			ttl := time.Duration(cfg.Redis.TTLMinutes) * time.Minute
			names = platform.NewCachedResolver(rdb, names, ttl, log)
		}
	}

	sessions := session.NewManager(cat, led, log, m, session.Options{
		ClearItemsOnReselect: cfg.Session.ClearItemsOnReselect,
	})
	engine := recommend.NewEngine(led, cat, log, recommend.Options{
		TopN:       cfg.Recommend.TopN,
		WindowDays: cfg.Recommend.WindowDays,
	})

	service := bot.NewService(sessions, cat, engine, names, publisher, m, log)
	handler := bot.NewHandler(service, client, db, m, log)

	return runServer(ctx, log, "Bot service", port, handler.SetupRoutes())
}

// runRecommendAPI runs the standalone recommendation API.
func runRecommendAPI(ctx context.Context, cfg *config.Config, log *logger.Logger, port int, migrationsPath string) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m := metrics.NewRegistry()
	cat := catalog.NewPostgresStore(db, log)
	led := ledger.NewPostgresLedger(db, log)
	engine := recommend.NewEngine(led, cat, log, recommend.Options{
		TopN:       cfg.Recommend.TopN,
		WindowDays: cfg.Recommend.WindowDays,
	})

	service := recommendapi.NewService(engine, log)
	handler := recommendapi.NewHandler(service, db, m, log)

	return runServer(ctx, log, "Recommend API", port, handler.SetupRoutes())
}

// runSeed applies migrations and inserts the default catalog, then exits.
func runSeed(ctx context.Context, cfg *config.Config, log *logger.Logger, migrationsPath string) error {
	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return db.SeedDefaultRestaurants(ctx)
}

// runServer serves the mux until the context is cancelled, then shuts
// down gracefully.
func runServer(ctx context.Context, log *logger.Logger, name string, port int, mux *http.ServeMux) error {
	requestID := logger.GenerateRequestID()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("service_started", fmt.Sprintf("%s started on port %d", name, port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
