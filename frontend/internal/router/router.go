package router

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/itchan-dev/blogfront/frontend/internal/handler"
	"github.com/itchan-dev/blogfront/frontend/internal/middleware"
	"github.com/itchan-dev/blogfront/frontend/internal/setup"
	"github.com/itchan-dev/blogfront/shared/logger"
	mw "github.com/itchan-dev/blogfront/shared/middleware"
	"github.com/itchan-dev/blogfront/shared/middleware/metrics"
)

func SetupRouter(deps *setup.Dependencies) chi.Router {
	h := deps.Handler
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logger(logger.Log))
	r.Use(metrics.Middleware)
	r.Use(mw.SecurityHeaders(mw.SecurityOptions{
		HSTS: deps.Public.SecureCookies,
		CSP:  mw.FrontendCSP(origin(deps.Public.ImageBaseURL)),
	}))

	r.Get("/healthz", handler.HealthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(deps.Sessions))
		r.Use(middleware.GenerateCSRFToken(deps.CSRF))
		r.Use(middleware.ValidateCSRFToken(deps.CSRF))

		// Public routes
		r.Get("/", handler.RootHandler)
		r.Get("/auth", h.AuthGetHandler)
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit(deps.AuthLimiter, mw.ClientIP, mw.FormField("email")))
			r.Post("/auth/login", h.LoginPostHandler)
			r.Post("/auth/signup", h.SignupPostHandler)
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   deps.Public.CORSOrigins,
				AllowedMethods:   []string{http.MethodGet},
				AllowedHeaders:   []string{"Accept", "X-CSRF-Token"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			r.Get("/blogs/{id}/comments", h.CommentsAPIHandler)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.NeedAuth())

			r.Get("/logout", h.LogoutGetHandler)
			r.Post("/logout", h.LogoutPostHandler)

			r.Get("/dashboard", h.DashboardGetHandler)
			r.Get("/dashboard/blogs/new", h.BlogNewGetHandler)
			r.Get("/dashboard/blogs/{id}/edit", h.BlogEditGetHandler)
			r.Post("/dashboard/blogs/image", h.BlogImagePostHandler)
			r.Post("/dashboard/blogs/save", h.BlogSavePostHandler)
			r.Post("/dashboard/blogs/cancel", h.BlogCancelPostHandler)
			r.Get("/dashboard/blogs/{id}/delete", h.BlogDeleteGetHandler)
			r.Post("/dashboard/blogs/{id}/delete", h.BlogDeletePostHandler)
			r.Get("/drafts/{key}/preview", h.DraftPreviewHandler)

			r.Get("/blogs", h.BlogsGetHandler)
			r.Get("/blogs/{id}", h.BlogGetHandler)
			r.Post("/blogs/{id}/comments", h.CommentPostHandler)
		})
	})

	return r
}

// origin reduces a base URL to scheme://host for the CSP.
func origin(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
