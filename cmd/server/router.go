package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/phrazzld/taskflow-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/avatar"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Trace-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := api.NewAuthHandler(app.accountService, app.config.Server.FrontendURL, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	profileHandler := api.NewProfileHandler(app.profileService, app.config.Uploads.MaxAvatarBytes, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if app.limiter != nil {
				r.Use(apiMiddleware.RateLimit(app.limiter, app.logger))
			}
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Get("/{provider}", authHandler.BeginOAuth)
			r.Get("/{provider}/callback", authHandler.OAuthCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/tasks", taskHandler.ListTasks)
			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}", taskHandler.UpdateTask)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)

			r.Get("/user/profile", profileHandler.GetProfile)
			r.Put("/user/profile", profileHandler.UpdateProfile)
			r.Delete("/user/profile", profileHandler.DeleteAccount)
			r.Post("/user/avatar", profileHandler.UploadAvatar)
			r.Delete("/user/avatar", profileHandler.RemoveAvatar)
		})
	})

	// Avatars are public so <img> tags work without a token.
	fileServer := http.StripPrefix(avatar.URLPrefix, http.FileServer(http.Dir(app.avatars.Dir())))
	r.Get(avatar.URLPrefix+"*", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
		fileServer.ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
