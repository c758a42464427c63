package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ietfeiheh2016/smilecare-dental-website/internal/booking"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/chat"
	httpmiddleware "github.com/ietfeiheh2016/smilecare-dental-website/internal/http/middleware"
	"github.com/ietfeiheh2016/smilecare-dental-website/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *booking.Handler
	ChatHandler        *chat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

	// Public API consumed by the marketing site's widget and form.
	r.Group(func(public chi.Router) {
		if cfg.RateLimitPerSecond > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}
		public.Post("/appointments", cfg.BookingHandler.HandleAppointments)
		public.Get("/appointments", cfg.BookingHandler.HandleGetSlots)
		public.Post("/chat", cfg.ChatHandler.HandleChat)
		public.Get("/chat/ws", cfg.ChatHandler.HandleWebSocket)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
