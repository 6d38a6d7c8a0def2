// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/communityhub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/communityhub/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/communityhub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/communityhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/communityhub/internal/app/features/login"
	recordsfeature "github.com/dalemusser/communityhub/internal/app/features/records"
	remindersfeature "github.com/dalemusser/communityhub/internal/app/features/reminders"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	s, err := current(appCfg, deps, logger)
	if err != nil {
		logger.Error("service init failed", zap.Error(err))
		return nil, err
	}
	return newRouter(deps, s, logger), nil
}

// newRouter mounts every feature:
//
//	/health, /metrics          public
//	/public/login, /register   public, rate limited
//	/private/...               bearer token required
//	/private/audit             group admins only
func newRouter(deps DBDeps, s *services, logger *zap.Logger) chi.Router {
	db := deps.MongoDatabase
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	// Global auth middleware: a valid bearer token puts the user in context.
	r.Use(s.tokens.LoadTokenUser)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	loginHandler := loginfeature.NewHandler(db, s.tokens, s.limiter, errLog, s.audit, logger)
	r.Mount("/public", loginfeature.Routes(loginHandler))

	r.Route("/private", func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/me", loginHandler.ServeMe)
		pr.Mount("/groups", groupsfeature.Routes(groupsfeature.NewHandler(db, s.tokens, errLog, s.audit, logger)))
		pr.Mount("/reminders", remindersfeature.Routes(remindersfeature.NewHandler(s.reminders, errLog, s.audit, logger)))
		pr.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(db, errLog, logger)))
		recordsfeature.MountAll(pr, db, s.metrics, errLog, s.audit, logger)
	})

	return r
}
