package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AymenMB/autogen-backend/api/routes"
	"github.com/AymenMB/autogen-backend/internal/auth"
	"github.com/AymenMB/autogen-backend/internal/feed"
	"github.com/AymenMB/autogen-backend/internal/garage"
	"github.com/AymenMB/autogen-backend/internal/profiles"
	"github.com/AymenMB/autogen-backend/internal/studio"
	"github.com/AymenMB/autogen-backend/internal/users"
	"github.com/AymenMB/autogen-backend/pkg/auth/session"
	"github.com/AymenMB/autogen-backend/pkg/config"
	"github.com/AymenMB/autogen-backend/pkg/db"
	"github.com/AymenMB/autogen-backend/pkg/gemini"
	"github.com/AymenMB/autogen-backend/pkg/logger"
	"github.com/AymenMB/autogen-backend/pkg/metrics"
	"github.com/AymenMB/autogen-backend/pkg/migrate"
	"github.com/AymenMB/autogen-backend/pkg/redis"
	"github.com/AymenMB/autogen-backend/pkg/storage/gcs"
	"github.com/AymenMB/autogen-backend/pkg/storage/inline"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if dbClient.IsSQLite() {
		if err := dbClient.AutoMigrate(); err != nil {
			logg.Error(context.Background(), "failed to migrate sqlite schema", err)
			os.Exit(1)
		}
		if cfg.FeatureFlags.SeedDemoData {
			if err := db.SeedDemoData(context.Background(), dbClient, logg); err != nil {
				logg.Error(context.Background(), "failed to seed demo data", err)
				os.Exit(1)
			}
		}
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	inferenceMetrics := metrics.NewInferenceMetrics(registry)

	uploader, err := buildUploader(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap storage", err)
		os.Exit(1)
	}

	geminiClient := gemini.NewClient(cfg.Gemini, logg).WithMetrics(inferenceMetrics)
	if !cfg.Gemini.Configured() {
		logg.Warn(context.Background(), "gemini API key missing, AI features will be unavailable")
	}

	userRepo := users.NewRepository(dbClient.DB())
	profileRepo := profiles.NewRepository(dbClient.DB())
	carRepo := garage.NewRepository(dbClient.DB())
	shootRepo := studio.NewRepository(dbClient.DB())
	postRepo := feed.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		ProfileRepo:    profileRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(profileRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	garageService, err := garage.NewService(garage.ServiceParams{
		CarRepo:       carRepo,
		Analyzer:      geminiClient,
		Uploader:      uploader,
		StorageConfig: cfg.Storage,
		GarageConfig:  cfg.Garage,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create garage service", err)
		os.Exit(1)
	}

	studioService, err := studio.NewService(studio.ServiceParams{
		CarRepo:       carRepo,
		ShootRepo:     shootRepo,
		Generator:     geminiClient,
		Uploader:      uploader,
		Cooldown:      redisClient,
		StorageConfig: cfg.Storage,
		StudioConfig:  cfg.Studio,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create studio service", err)
		os.Exit(1)
	}

	feedService, err := feed.NewService(feed.ServiceParams{
		PostRepo:    postRepo,
		CarRepo:     carRepo,
		ShootRepo:   shootRepo,
		ProfileRepo: profileRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create feed service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			SessionManager:  sessionManager,
			HTTPMetrics:     httpMetrics,
			Registry:        registry,
			AuthService:     authService,
			RegisterService: registerService,
			ProfileService:  profileService,
			GarageService:   garageService,
			StudioService:   studioService,
			FeedService:     feedService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// uploaderClient is what the garage and studio services need from storage.
type uploaderClient interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)
}

// buildUploader picks real object storage when GCS credentials or an emulator
// endpoint are present, and falls back to inline data URLs for demo mode.
func buildUploader(ctx context.Context, cfg *config.Config, logg *logger.Logger) (uploaderClient, error) {
	if cfg.GCP.CredentialsJSON == "" && cfg.GCP.ApplicationCredentials == "" && cfg.Storage.Endpoint == "" {
		logg.Warn(ctx, "no GCS credentials configured, storing images inline")
		return inline.New(), nil
	}
	return gcs.NewClient(ctx, cfg.Storage, cfg.GCP, logg)
}
