package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AymenMB/autogen-backend/api/controllers"
	"github.com/AymenMB/autogen-backend/api/middleware"
	"github.com/AymenMB/autogen-backend/internal/auth"
	"github.com/AymenMB/autogen-backend/internal/feed"
	"github.com/AymenMB/autogen-backend/internal/garage"
	"github.com/AymenMB/autogen-backend/internal/profiles"
	"github.com/AymenMB/autogen-backend/internal/studio"
	"github.com/AymenMB/autogen-backend/pkg/auth/session"
	"github.com/AymenMB/autogen-backend/pkg/config"
	"github.com/AymenMB/autogen-backend/pkg/db"
	"github.com/AymenMB/autogen-backend/pkg/logger"
	"github.com/AymenMB/autogen-backend/pkg/metrics"
	"github.com/AymenMB/autogen-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Params carries everything the router wires together.
type Params struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager sessionManager
	HTTPMetrics    *metrics.HTTPMetrics
	Registry       *prometheus.Registry

	AuthService     auth.Service
	RegisterService auth.RegisterService
	ProfileService  profiles.Service
	GarageService   garage.Service
	StudioService   studio.Service
	FeedService     feed.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if p.HTTPMetrics != nil {
		r.Use(middleware.Metrics(p.HTTPMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": p.DB,
			"redis":    pingerOrNil(p.Redis),
		}))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/feed", controllers.FeedList(p.FeedService, logg))
		r.Get("/discover", controllers.Discover(p.GarageService, logg))
		r.Get("/profiles/{username}", controllers.ProfileByUsername(p.ProfileService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.RegisterService, p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.SessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.SessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
		r.Get("/ping", controllers.PrivatePing())

		r.Post("/auth/change-password", controllers.AuthChangePassword(p.AuthService, logg))

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/me", controllers.ProfileMe(p.ProfileService, logg))
			r.Put("/me", controllers.ProfileUpdateMe(p.ProfileService, logg))
		})

		r.Route("/garage", func(r chi.Router) {
			r.Post("/drafts/images", controllers.GarageUploadImages(p.GarageService, logg))
			r.Post("/drafts/analyze", controllers.GarageAnalyze(p.GarageService, logg))
			r.Route("/cars", func(r chi.Router) {
				r.Get("/", controllers.GarageListCars(p.GarageService, logg))
				r.Post("/", controllers.GarageCreateCar(p.GarageService, logg))
				r.Get("/{carID}", controllers.GarageGetCar(p.GarageService, logg))
				r.Put("/{carID}", controllers.GarageUpdateCar(p.GarageService, logg))
				r.Delete("/{carID}", controllers.GarageDeleteCar(p.GarageService, logg))
			})
		})

		r.Route("/studio", func(r chi.Router) {
			r.Get("/styles", controllers.StudioStyles())
			r.Post("/generate", controllers.StudioGenerate(p.StudioService, logg))
			r.Route("/photoshoots", func(r chi.Router) {
				r.Get("/", controllers.StudioListPhotoshoots(p.StudioService, logg))
				r.Post("/", controllers.StudioSavePhotoshoot(p.StudioService, logg))
			})
		})

		r.Route("/feed", func(r chi.Router) {
			r.Post("/posts", controllers.FeedCreatePost(p.FeedService, logg))
			r.Post("/posts/{postID}/like", controllers.FeedLikePost(p.FeedService, logg))
			r.Delete("/posts/{postID}/like", controllers.FeedUnlikePost(p.FeedService, logg))
		})
	})

	return r
}

func pingerOrNil(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}
