package main

import (
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jacobmr/teslatracker/adapters/cache"
	"github.com/jacobmr/teslatracker/adapters/events"
	"github.com/jacobmr/teslatracker/adapters/store"
	"github.com/jacobmr/teslatracker/adapters/tesla"
	"github.com/jacobmr/teslatracker/adapters/tokenizer"
	"github.com/jacobmr/teslatracker/config"
	"github.com/jacobmr/teslatracker/service"
	transport "github.com/jacobmr/teslatracker/transport/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Redis
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("failed to parse Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(opts)

	// Signup events go out over a Redis stream
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}

	teslaClient := tesla.NewClient(tesla.Config{
		ClientID:     cfg.TeslaClientID,
		ClientSecret: cfg.TeslaClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthURL:      cfg.TeslaAuthURL,
		TokenURL:     cfg.TeslaTokenURL,
		APIURL:       cfg.TeslaAPIURL,
	})

	nonces := cache.NewRedisStore(redisClient, cfg.StateTTL)
	accounts := store.NewPostgresStore(db)
	sessions := tokenizer.NewJWTTokenizer([]byte(cfg.JWTSecret))
	eventPub := events.NewWatermillPublisher(publisher)

	authService := service.NewAuthService(nonces, teslaClient, teslaClient, accounts, sessions, eventPub, service.Config{
		SessionTTL:  cfg.SessionTTL,
		RefreshSkew: cfg.RefreshSkew,
	})
	vehicleService := service.NewVehicleService(accounts, teslaClient, teslaClient)

	router := transport.SetupRouter(authService, vehicleService, transport.FrontendConfig{
		SuccessURL: cfg.FrontendSuccessURL,
		ErrorURL:   cfg.FrontendErrorURL,
	}, prometheus.NewRegistry())

	slog.Info("starting server", "addr", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
