package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterConfig bundles what the router needs from the application wiring.
type RouterConfig struct {
	Bills          *BillsHandler
	JWTSecret      []byte
	AllowedOrigins []string
	UploadDir      string
	Log            zerolog.Logger
}

// NewRouter assembles the bills API: authenticated record endpoints plus
// public serving of stored receipt files.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Log))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/bills", func(r chi.Router) {
		r.Use(RequireEmployee(cfg.JWTSecret))
		r.Get("/", cfg.Bills.List)
		r.Post("/", cfg.Bills.Create)
		r.Patch("/{billID}", cfg.Bills.Update)
	})

	r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.UploadDir))))

	return r
}
