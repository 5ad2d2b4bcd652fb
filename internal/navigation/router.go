package navigation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/psico-client/internal/access"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Get("/healthz", s.handleHealth)

	// Public pages
	r.Get(access.LoginPath, s.handleLoginPage)
	r.Post(access.LoginPath, s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get(access.ForbiddenPath, s.handleForbidden)
	r.Route(access.RegisterPath, func(r chi.Router) {
		r.Get("/", s.handleRegisterSelect)
		r.Get("/{role}", s.handleRegisterPage)
		r.Post("/{role}", s.handleRegister)
	})

	// Protected areas, one guarded subtree per route
	for _, route := range access.Routes {
		r.Route(route.Prefix, func(r chi.Router) {
			r.Use(s.RequireRoles(route.Roles))
			r.Get("/", s.areaHandler(route, ""))
			for _, child := range route.Children {
				r.Get("/"+child, s.areaHandler(route, child))
			}
		})
	}

	r.Get("/", redirectTo(access.LoginPath))
	r.NotFound(redirectTo(access.LoginPath))

	return r
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusSeeOther)
	}
}
