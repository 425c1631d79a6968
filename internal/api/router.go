package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sousadrivikis20-lab/Alugabv/internal/api/handler"
	"github.com/sousadrivikis20-lab/Alugabv/internal/api/middleware"
	"github.com/sousadrivikis20-lab/Alugabv/internal/app/service"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common/security"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/repository"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

type Dependencies struct {
	AuthService     *service.AuthService
	UserService     *service.UserService
	PropertyService *service.PropertyService
	Sessions        repository.SessionStore
	Tokens          *security.SessionTokens
	Log             logging.Logger

	CookieSecure  bool
	MaxImages     int
	MaxImageBytes int64

	// UploadsDir, when set, is served under UploadsPath.
	UploadsDir  string
	UploadsPath string
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Resolves the session cookie for every route; handlers decide whether
	// they need it.
	r.Use(middleware.LoadSession(deps.Tokens, deps.Sessions, deps.Log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	if deps.UploadsDir != "" {
		prefix := "/" + strings.Trim(deps.UploadsPath, "/")
		files := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(deps.UploadsDir)))
		r.Get(prefix+"/*", files.ServeHTTP)
	}

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(deps.AuthService, deps.Tokens, deps.CookieSecure, deps.Log)
		api.Route("/auth", authHandler.RegisterRoutes)

		propertyHandler := handler.NewPropertyHandler(deps.PropertyService, deps.MaxImages, deps.MaxImageBytes, deps.Log)
		api.Route("/imoveis", propertyHandler.RegisterRoutes)

		userHandler := handler.NewUserHandler(deps.UserService, deps.CookieSecure, deps.Log)
		api.Route("/users", userHandler.RegisterRoutes)
	})

	return r
}
