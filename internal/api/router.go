package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"

	"tle_judge/internal/api/handler"
	"tle_judge/internal/api/middleware"
)

type Services struct {
	Auth        handler.AuthService
	Problems    handler.ProblemService
	Submissions handler.SubmissionService
	Contests    handler.ContestService
	Languages   handler.LanguageService
	Admin       handler.AdminService
}

func NewRouter(svc Services, tokenAuth *jwtauth.JWTAuth, allowedOrigins []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Searches for a token in "Authorization: Bearer T" and puts it in the context.
	r.Use(jwtauth.Verifier(tokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", handler.NewAuthHandler(svc.Auth).RegisterRoutes)
		v1.Route("/problems", handler.NewProblemHandler(svc.Problems).RegisterRoutes)
		v1.Route("/submissions", handler.NewSubmissionHandler(svc.Submissions).RegisterRoutes)
		v1.Route("/contests", handler.NewContestHandler(svc.Contests).RegisterRoutes)
		v1.Route("/languages", handler.NewLanguageHandler(svc.Languages).RegisterRoutes)
		v1.Route("/admin", handler.NewAdminHandler(svc.Admin).RegisterRoutes)
	})

	return r
}
