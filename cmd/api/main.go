package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"physio-backend/internal/auth"
	"physio-backend/internal/cache"
	"physio-backend/internal/calendar"
	"physio-backend/internal/config"
	"physio-backend/internal/dashboard"
	"physio-backend/internal/db"
	"physio-backend/internal/events"
	"physio-backend/internal/finance"
	"physio-backend/internal/handlers"
	"physio-backend/internal/patients"
	"physio-backend/internal/remote"
	"physio-backend/internal/session"
	"physio-backend/internal/store"
	"physio-backend/internal/users"
	"physio-backend/internal/validation"
)

// devSecret signs sessions outside production when JWT_SECRET is unset.
const devSecret = "physio-dev-secret"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var checks []handlers.Check
	var st *store.Store
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Error("mongo connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
		defer client.Disconnect(context.Background())

		if err := db.EnsureIndexes(ctx, cols); err != nil {
			logger.Error("index creation failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		st = store.NewMongo(cols)
		checks = append(checks, handlers.Check{Name: "mongo", Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}})
	case config.DriverSQLite, config.DriverPostgres:
		gdb, err := db.OpenSQL(cfg.StoreDriver, cfg.SQLDSN)
		if err != nil {
			logger.Error("sql connection failed", slog.String("driver", cfg.StoreDriver), slog.String("error", err.Error()))
			os.Exit(1)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			logger.Error("sql connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer sqlDB.Close()

		st, err = store.NewSQL(ctx, gdb)
		if err != nil {
			logger.Error("sql migration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("sql connected", slog.String("driver", cfg.StoreDriver))
		checks = append(checks, handlers.Check{Name: "sql", Ping: sqlDB.PingContext})
	default:
		if cfg.StoreSeed {
			st, err = store.NewFixture(time.Now(), cfg.Timezone)
			if err != nil {
				logger.Error("fixture load failed", slog.String("error", err.Error()))
				os.Exit(1)
			}
			logger.Info("memory store seeded with demo data")
		} else {
			st = store.NewMemory()
			logger.Info("memory store empty")
		}
	}

	var cacheStore cache.Cache = cache.NewMemory()
	if cfg.CacheTTL() <= 0 {
		cacheStore = cache.NewNoop()
		logger.Info("summary cache disabled")
	} else if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		defer redisCache.Close()
		cacheStore = redisCache
		checks = append(checks, handlers.Check{Name: "redis", Ping: redisCache.Ping})
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = devSecret
	}
	tokens := &auth.Manager{
		Secret: []byte(secret),
		TTL:    cfg.SessionTTL(),
		Issuer: "physio-backend",
	}

	hub := events.NewHub(logger)
	defer hub.Close()
	bus := events.NewBus(hub)

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Error("kafka connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer producer.Close()
		bus.Subscribe(producer)
		logger.Info("kafka producer enabled", slog.String("topic", cfg.KafkaTopic))
	}

	val := validation.New()

	dashboardService := dashboard.New(st, cacheStore, cfg.CacheTTL(), cfg.Timezone, logger)
	financeService := finance.New(st, cacheStore, cfg.CacheTTL(), bus, cfg.Timezone, logger)
	bus.Subscribe(dashboardService)
	bus.Subscribe(financeService)
	calendarService := calendar.New(st, bus, cfg.Timezone, logger)

	remoteClient := remote.New(cfg.RemoteURL, cfg.RemoteKey)
	if remoteClient.Configured() {
		logger.Info("remote backend configured", slog.String("url", cfg.RemoteURL))
	}

	server := &handlers.Server{
		Cfg:     cfg,
		Val:     val,
		Log:     logger,
		Session: session.New(st.Users, tokens, cfg.LoginDelay()),
		Remote:  remoteClient,
		Checks:  checks,
	}

	router := handlers.NewRouter(handlers.Routes{
		Server:    server,
		Tokens:    tokens,
		Calendar:  calendar.NewHandler(calendarService, hub, val, logger),
		Dashboard: dashboard.NewHandler(dashboardService, logger),
		Finance:   finance.NewHandler(financeService, val, logger),
		Patients:  patients.NewHandler(patients.New(st, bus, logger), val, logger),
		Users:     users.NewHandler(users.New(st.Users), val, logger),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr), slog.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
