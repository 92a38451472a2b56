package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a chi router with all API routes mounted.
// GET / and GET /<CertName> are reachable without a token; everything else
// goes through AuthMiddleware.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept", "Heading", "Heading-Boundary", "Content-Insertion-Position"},
		ExposedHeaders: []string{"Content-Location", "X-Response-Time"},
		MaxAge:         300,
	}))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	exempt := []string{"/"}
	if d.CertName != "" {
		exempt = append(exempt, "/"+d.CertName)
	}
	r.Use(AuthMiddleware(d.Auth, exempt...))
	r.Use(BodyParser)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeCanned(w, http.StatusNotFound, 0, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeCanned(w, http.StatusMethodNotAllowed, 0, "")
	})

	r.Get("/", h.Root)
	if d.CertName != "" {
		r.Get("/"+d.CertName, h.Certificate)
	}

	// Vault files. "/vault" alone lists the root.
	for _, pattern := range []string{"/vault", "/vault/*"} {
		r.Get(pattern, h.VaultGet)
		r.Put(pattern, h.VaultPut)
		r.Post(pattern, h.VaultPost)
		r.Patch(pattern, h.VaultPatch)
		r.Delete(pattern, h.VaultDelete)
	}

	both(r, "/periodic/{period}", func(r chi.Router, p string) {
		r.Get(p, h.PeriodicGet)
		r.Put(p, h.PeriodicPut)
		r.Post(p, h.PeriodicPost)
		r.Patch(p, h.PeriodicPatch)
		r.Delete(p, h.PeriodicDelete)
	})

	both(r, "/commands", func(r chi.Router, p string) { r.Get(p, h.ListCommands) })
	both(r, "/commands/{id}", func(r chi.Router, p string) { r.Post(p, h.ExecuteCommand) })

	both(r, "/search", func(r chi.Router, p string) { r.Post(p, h.SearchStructured) })
	both(r, "/search/simple", func(r chi.Router, p string) { r.Post(p, h.SearchSimple) })
	both(r, "/search/gui", func(r chi.Router, p string) { r.Post(p, h.SearchGUI) })
	both(r, "/search/uid", func(r chi.Router, p string) { r.Post(p, h.SearchUID) })

	r.Post("/open/*", h.Open)
	both(r, "/prompt", func(r chi.Router, p string) { r.Post(p, h.SubmitPrompt) })

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
		r.Get("/events/ws", d.Events.ServeWebSocket)
	}
	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics.ServeHTTP)
	}

	return r
}

// both mounts routes at pattern and pattern + "/".
func both(r chi.Router, pattern string, mount func(r chi.Router, p string)) {
	mount(r, pattern)
	mount(r, pattern+"/")
}
