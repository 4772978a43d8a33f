package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flextech/employees-backend/api/controllers"
	"github.com/flextech/employees-backend/api/middleware"
	"github.com/flextech/employees-backend/internal/roster"
	"github.com/flextech/employees-backend/internal/users"
	"github.com/flextech/employees-backend/pkg/config"
	"github.com/flextech/employees-backend/pkg/db"
	"github.com/flextech/employees-backend/pkg/enums"
	"github.com/flextech/employees-backend/pkg/logger"
	"github.com/flextech/employees-backend/pkg/metrics"
	"github.com/flextech/employees-backend/pkg/redis"
)

// NewRouter assembles the full HTTP surface. The redis client may be nil, in
// which case login rate limiting and the cache readiness check are skipped.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	dbClient *db.Client,
	redisClient *redis.Client,
	userService users.Service,
	rosterService *roster.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	// Interface-typed so a nil client never reaches the middleware as a
	// non-nil interface holding a nil pointer.
	var cachePinger db.Pinger
	var limiterStore middleware.RateLimiterStore
	if redisClient != nil {
		cachePinger = redisClient
		limiterStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, cachePinger))
	})

	r.Handle("/metrics", httpMetrics.Handler())

	// Uploaded avatars are served straight from local disk.
	if dir := strings.TrimSpace(cfg.Storage.AvatarDir); dir != "" {
		prefix := strings.TrimRight(cfg.Storage.PublicBaseURL, "/") + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(dir))))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).
			Post("/login", controllers.AuthLogin(userService, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).
			Post("/change_password", controllers.AuthChangePassword(userService, logg))
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/me", controllers.CurrentUser(userService, logg))
		r.Patch("/update_current", controllers.UpdateCurrentUser(userService, logg))
	})

	r.Route("/api/admin/v1/users", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

		r.Get("/", controllers.AdminListUsers(userService, logg))
		r.Post("/", controllers.AdminCreateUser(userService, logg))
		r.Get("/download", controllers.AdminDownloadUsers(rosterService, logg))
		r.Patch("/upload", controllers.AdminUploadUsers(rosterService, cfg.Storage, logg))
		r.Post("/multi_update", controllers.AdminMultiUpdateUsers(userService, logg))
		r.Post("/multi_delete", controllers.AdminMultiDeleteUsers(userService, logg))

		r.Route("/{userId}", func(r chi.Router) {
			r.Get("/", controllers.AdminShowUser(userService, logg))
			r.Patch("/", controllers.AdminUpdateUser(userService, logg))
			r.Delete("/", controllers.AdminDeleteUser(userService, logg))
			r.Patch("/upload_avatar", controllers.AdminUploadAvatar(userService, cfg.Storage, logg))
			r.Patch("/reset_password", controllers.AdminResetPassword(userService, logg))
		})
	})

	return r
}
