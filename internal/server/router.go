package server

import (
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/HaidarGhanem/management-crud/internal/config"
	"github.com/HaidarGhanem/management-crud/internal/inventory"
	"github.com/HaidarGhanem/management-crud/internal/ledger"
	"github.com/HaidarGhanem/management-crud/internal/storage"
	webstatic "github.com/HaidarGhanem/management-crud/static"
)

func NewRouter(cfg config.Config, items *inventory.Store, lg *ledger.Ledger, take *inventory.Processor, probe storage.Driver) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appOrigins(cfg.AppURL),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	metrics := newRequestMetrics()
	r.Use(metrics.instrument)

	staticFS := webstatic.FileSystem()
	if _, err := os.Stat("static"); err == nil {
		staticFS = http.Dir("static")
	}

	h := newHandler(items, lg, take, probe)
	limiter := newWriteRateLimiter(cfg.WriteRate.Requests, cfg.WriteRate.Window)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(staticFS)))
	r.Get("/", http.FileServer(staticFS).ServeHTTP)
	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.handler())

	r.Get("/items", h.listItems)
	r.Get("/transactions", h.listTransactions)

	r.Group(func(r chi.Router) {
		r.Use(limiter.limitByIP("write"))
		r.Post("/items", h.createItem)
		r.Put("/items/{name}", h.updateItem)
		r.Delete("/items/{name}", h.deleteItem)
		r.Post("/take-item", h.takeItem)
		r.Put("/transactions/{index}", h.updateTransaction)
		r.Delete("/transactions/{index}", h.deleteTransaction)
	})

	return r
}

func appOrigins(appURL string) []string {
	appURL = strings.TrimSpace(appURL)
	if appURL == "" {
		return nil
	}
	parsed, err := url.Parse(appURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil
	}
	return []string{parsed.Scheme + "://" + parsed.Host}
}
