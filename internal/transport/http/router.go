package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-signup-api/internal/application/registration"
	"github.com/go-signup-api/internal/config"
	"github.com/go-signup-api/internal/infrastructure/dynamo"
	"github.com/go-signup-api/internal/infrastructure/smtp"
	"github.com/go-signup-api/internal/transport/http/handler"
	appmiddleware "github.com/go-signup-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo *dynamo.UserRepo
	OtpRepo  *dynamo.OtpRepo
	Mailer   smtp.Mailer
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	regSvc := registration.NewService(registration.ServiceDeps{
		UserRepo:  deps.UserRepo,
		OtpRepo:   deps.OtpRepo,
		Mailer:    deps.Mailer,
		OTPExpiry: cfg.OTPExpiry,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(regSvc, cfg.ExposeDebugOTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/verify-email", authH.VerifyEmail)
		r.With(sensitiveRL.Limit).Post("/login", authH.Login)
	})

	// Front-end assets, served straight from disk.
	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	return r
}
