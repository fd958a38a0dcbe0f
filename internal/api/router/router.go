package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/smilecare-dental/internal/admin"
	"github.com/wolfman30/smilecare-dental/internal/booking"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
	"github.com/wolfman30/smilecare-dental/internal/chat"
	"github.com/wolfman30/smilecare-dental/internal/contact"
	httpmiddleware "github.com/wolfman30/smilecare-dental/internal/http/middleware"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	CatalogHandler     *catalog.Handler
	BookingHandler     *booking.Handler
	AdminHandler       *admin.Handler
	ChatHandler        *chat.Handler
	ContactHandler     *contact.Handler
	ContactLimiter     *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.CatalogHandler != nil {
			cfg.CatalogHandler.Routes(api)
		}
		if cfg.BookingHandler != nil {
			cfg.BookingHandler.Routes(api)
		}
		if cfg.ChatHandler != nil {
			api.Route("/chat", cfg.ChatHandler.Routes)
		}
		if cfg.ContactHandler != nil {
			api.Route("/contact", func(r chi.Router) {
				if cfg.ContactLimiter != nil {
					r.Use(cfg.ContactLimiter.Middleware)
				}
				cfg.ContactHandler.Routes(r)
			})
		}
	})

	if cfg.AdminHandler != nil {
		r.Route("/admin", cfg.AdminHandler.Routes)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
