// Package httpapi exposes the domain engine over HTTP: the operator-facing
// domain management endpoints and the public storefront resolution route
// consulted on every anonymous visit.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hauntworks/platform/internal/domains"
	"github.com/hauntworks/platform/internal/resolver"
	"github.com/hauntworks/platform/pkg/dnsverify"
	"github.com/hauntworks/platform/pkg/logger"
)

// DomainManager is the slice of the domain lifecycle service the API uses.
type DomainManager interface {
	AddDomain(ctx context.Context, tenantID, rawDomain string, method dnsverify.Method) (*domains.Binding, *domains.SetupInstructions, error)
	VerifyDomain(ctx context.Context, tenantID, domainID string) (*domains.Binding, error)
	SetPrimaryDomain(ctx context.Context, tenantID, domainID string) error
	DeleteDomain(ctx context.Context, tenantID, domainID string) error
	ListDomains(ctx context.Context, tenantID string) ([]domains.Binding, error)
	EnsureSubdomain(ctx context.Context, tenantID, slug string) error
}

// StorefrontResolver resolves public identifiers to storefront contexts.
type StorefrontResolver interface {
	Resolve(ctx context.Context, identifier string) (*resolver.Storefront, error)
}

// SettingsStore persists storefront settings.
type SettingsStore interface {
	UpsertSettings(ctx context.Context, tenantID, title string, isPublished bool) error
	TenantByID(ctx context.Context, id string) (*resolver.Tenant, error)
}

// Handler serves the engine's HTTP routes.
type Handler struct {
	domains  DomainManager
	resolver StorefrontResolver
	settings SettingsStore
	log      *slog.Logger
}

// New creates the handler. A nil log discards output.
func New(dm DomainManager, sr StorefrontResolver, ss SettingsStore, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.NewNope()
	}
	return &Handler{domains: dm, resolver: sr, settings: ss, log: log}
}

// Router assembles the chi router with the standard middleware stack.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/attractions/{attractionID}", func(r chi.Router) {
		r.Route("/domains", func(r chi.Router) {
			r.Get("/", h.listDomains)
			r.Post("/", h.addDomain)
			r.Post("/{domainID}/verify", h.verifyDomain)
			r.Put("/{domainID}/primary", h.setPrimaryDomain)
			r.Delete("/{domainID}", h.deleteDomain)
		})
		r.Put("/storefront", h.upsertStorefront)
	})

	r.Get("/public/storefront", h.publicStorefront)

	return r
}
