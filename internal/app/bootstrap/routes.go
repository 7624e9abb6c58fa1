// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authgooglefeature "github.com/tenmm/squadadmin/internal/app/features/authgoogle"
	companionfeature "github.com/tenmm/squadadmin/internal/app/features/companion"
	consolefeature "github.com/tenmm/squadadmin/internal/app/features/console"
	errorsfeature "github.com/tenmm/squadadmin/internal/app/features/errors"
	healthfeature "github.com/tenmm/squadadmin/internal/app/features/health"
	homefeature "github.com/tenmm/squadadmin/internal/app/features/home"
	loginfeature "github.com/tenmm/squadadmin/internal/app/features/login"
	logoutfeature "github.com/tenmm/squadadmin/internal/app/features/logout"
	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	userstore "github.com/tenmm/squadadmin/internal/app/store/users"
	synccore "github.com/tenmm/squadadmin/internal/app/sync"
	"github.com/tenmm/squadadmin/internal/app/system/auth"
	"github.com/tenmm/squadadmin/internal/app/system/authz"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It initializes the session store and
// template engine, builds the synchronization core over the document store,
// and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	admins := authz.NewAdminSet(appCfg.AdminEmails)
	docs := docstore.NewMongo(deps.MongoDatabase, logger)
	core := synccore.New(docs, logger)
	users := userstore.New(docs)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(admins, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	oauthHandler := authgooglefeature.NewHandler(users, core, admins,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(oauthHandler))

	logoutHandler := logoutfeature.NewHandler(core, admins, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Admin console
	consoleHandler := consolefeature.NewHandler(core, admins, logger)
	r.Mount("/console", consolefeature.Routes(consoleHandler, admins))

	// Companion app screens
	companionHandler := companionfeature.NewHandler(users, logger)
	r.Mount("/app", companionfeature.Routes(companionHandler))

	return r, nil
}
