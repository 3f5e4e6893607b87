package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/auth"
	"github.com/nexzo/platform/gomicro/config"
	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/jwtutil"
	"github.com/nexzo/platform/gomicro/logger"
	mid "github.com/nexzo/platform/gomicro/middleware"
	"github.com/nexzo/platform/gomicro/server"
	"github.com/nexzo/platform/services/api-gateway/internal/handler"
	"github.com/nexzo/platform/services/api-gateway/internal/proxy"
	"github.com/nexzo/platform/services/api-gateway/internal/store"
	"github.com/nexzo/platform/services/api-gateway/prometheus"
)

const serviceName = "api-gateway"

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
	log.Info("Starting API gateway...", zap.String("environment", cfg.Server.Env))

	// The gateway only reads tenants; schema is owned by platformctl migrate
	db, err := database.InitDB(&cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	prometheus.InitMetrics(cfg.Metrics.Prefix)

	upstreams, err := proxy.Upstreams(cfg.Upstreams)
	if err != nil {
		log.Fatal("Invalid upstream configuration", zap.Error(err))
	}
	for _, up := range upstreams {
		log.Info("Proxying upstream",
			zap.String("upstream", up.Name),
			zap.String("target", up.Target.String()),
			zap.Strings("prefixes", up.Prefixes))
	}

	resolver := auth.NewResolver(auth.WithJWTVerifier(jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey: cfg.Auth.SigningKey,
	})))

	e := server.New(server.NewServiceInfo(serviceName, cfg.Server.Version), log)
	proxy.Register(e, upstreams)

	// Tenant lookup is answered locally and outranks the onboarding proxy
	api := e.Group("/v1", mid.RequireAuth(resolver, mid.AuthOptions{
		Optional:      cfg.Auth.Optional,
		RequireTenant: true,
		OnFailure:     prometheus.RecordAuthError,
	}))
	handler.NewTenantHandler(store.New(db)).Register(api)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, e, cfg.Server.Port, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}
