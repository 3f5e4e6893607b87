package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/auth"
	"github.com/nexzo/platform/gomicro/config"
	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/events"
	"github.com/nexzo/platform/gomicro/jwtutil"
	"github.com/nexzo/platform/gomicro/logger"
	mid "github.com/nexzo/platform/gomicro/middleware"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/gomicro/server"
	"github.com/nexzo/platform/services/onboarding-service/internal/handler"
	"github.com/nexzo/platform/services/onboarding-service/internal/store"
	"github.com/nexzo/platform/services/onboarding-service/prometheus"
)

const serviceName = "onboarding-service"

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting onboarding service...", zap.String("environment", cfg.Server.Env))

	db, err := database.InitDB(&cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)
	if err := database.MigrateModels(db, model.All()...); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established")

	prometheus.InitMetrics(cfg.Metrics.Prefix)

	publisher := events.Connect(cfg.NATS, serviceName, log)
	defer publisher.Close()

	resolver := auth.NewResolver(auth.WithJWTVerifier(jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey: cfg.Auth.SigningKey,
	})))

	e := server.New(server.NewServiceInfo(serviceName, cfg.Server.Version), log)

	h := handler.NewOnboardingHandler(store.New(db, store.InvitationPolicy{
		DefaultTTL: cfg.Invitations.DefaultTTL,
		MaxTTL:     cfg.Invitations.MaxTTL,
	}), publisher)

	// Tenant sign-up and invitation acceptance happen before the caller
	// belongs to a tenant
	h.RegisterPublic(e.Group("/v1"))
	h.Register(e.Group("/v1", mid.RequireAuth(resolver, mid.AuthOptions{
		Optional:      cfg.Auth.Optional,
		RequireTenant: true,
		OnFailure:     prometheus.RecordAuthError,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, e, cfg.Server.Port, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}
