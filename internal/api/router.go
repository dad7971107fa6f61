package api

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts every endpoint on a fresh router. Everything except
// register and login sits behind the JWT middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.JWTAuthMiddleware)
		r.Get("/", h.Index)
		r.Post("/buy", h.Buy)
		r.Post("/sell", h.Sell)
		r.Get("/history", h.History)
		r.Get("/quote", h.Quote)
		r.Post("/logout", h.Logout)
		r.Post("/change-password", h.ChangePassword)
	})

	return r
}
