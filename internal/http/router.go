package http

import (
	"log/slog"
	"net/http"
)

type RouterConfig struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Rooms        *RoomHandler
	Catalog      *CatalogHandler
	Reservations *ReservationHandler
	// Sessions authenticates every route except login and the health check.
	Sessions   SessionValidator
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.Sessions != nil {
		requireSession := RequireSession(cfg.Sessions, cfg.Logger)
		protect = func(h http.HandlerFunc) http.Handler { return requireSession(h) }
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Auth != nil {
		mux.HandleFunc("POST /sessions", cfg.Auth.CreateSession)
		mux.Handle("DELETE /sessions/current", protect(cfg.Auth.DeleteCurrentSession))
	}

	if cfg.Users != nil {
		mux.Handle("GET /users", protect(cfg.Users.List))
		mux.Handle("POST /users", protect(cfg.Users.Create))
	}

	if cfg.Rooms != nil {
		mux.Handle("GET /rooms", protect(cfg.Rooms.List))
		mux.Handle("POST /rooms", protect(cfg.Rooms.Create))
		mux.Handle("PUT /rooms/{id}", protect(cfg.Rooms.Update))
		mux.Handle("DELETE /rooms/{id}", protect(cfg.Rooms.Delete))
	}

	if cfg.Catalog != nil {
		mux.Handle("GET /periods", protect(cfg.Catalog.ListPeriods))
		mux.Handle("POST /periods", protect(cfg.Catalog.CreatePeriod))
		mux.Handle("DELETE /periods/{id}", protect(cfg.Catalog.DeletePeriod))
		mux.Handle("GET /terms", protect(cfg.Catalog.ListTerms))
		mux.Handle("POST /terms", protect(cfg.Catalog.CreateTerm))
		mux.Handle("GET /settings", protect(cfg.Catalog.ListSettings))
		mux.Handle("PUT /settings/{key}", protect(cfg.Catalog.PutSetting))
		mux.Handle("DELETE /settings/{key}", protect(cfg.Catalog.DeleteSetting))
	}

	if cfg.Reservations != nil {
		mux.Handle("GET /reservations", protect(cfg.Reservations.List))
		mux.Handle("POST /reservations", protect(cfg.Reservations.Create))
		mux.Handle("POST /reservations/advanced", protect(cfg.Reservations.CreateAdvanced))
		mux.Handle("GET /reservations/{id}", protect(cfg.Reservations.Get))
		mux.Handle("PATCH /reservations/{id}", protect(cfg.Reservations.Patch))
		mux.Handle("PATCH /reservations/{id}/slots/{slotID}", protect(cfg.Reservations.PatchSlot))
		mux.Handle("PATCH /admin/reservations/{id}", protect(cfg.Reservations.AdminPatch))
		mux.Handle("PATCH /admin/reservations/{id}/slots/{slotID}", protect(cfg.Reservations.AdminPatchSlot))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
