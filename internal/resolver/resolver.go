// Package resolver identifies the attraction behind a public storefront
// request. It is the hot read path: every anonymous visit resolves a raw
// Host header (or slug) to a tenant before any content can be served, so
// it only reads persisted state and never performs DNS work.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hauntworks/platform/internal/domains"
	"github.com/hauntworks/platform/pkg/cache"
	"github.com/hauntworks/platform/pkg/logger"
)

// ErrTenantNotFound is returned by TenantDirectory implementations when a
// slug or id resolves to nothing.
var ErrTenantNotFound = errors.New("resolver: tenant not found")

// Tenant is the attraction owning a storefront.
type Tenant struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Settings is the slice of storefront configuration this engine reads.
// The publish flag is owned by the storefront service; it is only
// consumed here.
type Settings struct {
	IsPublished bool   `json:"is_published"`
	Title       string `json:"title"`
}

// TenantDirectory is the tenant/settings lookup collaborator.
type TenantDirectory interface {
	TenantByID(ctx context.Context, id string) (*Tenant, error)
	TenantBySlug(ctx context.Context, slug string) (*Tenant, error)
	// PublishedSettings returns the storefront settings for a tenant, or
	// ErrTenantNotFound when none were ever written.
	PublishedSettings(ctx context.Context, tenantID string) (*Settings, error)
}

// BindingSource is the read-only slice of the domain store the resolver
// needs.
type BindingSource interface {
	GetActiveByDomain(ctx context.Context, domain string) (*domains.Binding, error)
	PrimaryByTenant(ctx context.Context, tenantID string) (*domains.Binding, error)
	HasActiveCustomDomain(ctx context.Context, tenantID string) (bool, error)
}

// Storefront is the resolved public context: who the tenant is, which
// domain the visitor arrived on, and the canonical URL to emit in links
// and redirects.
type Storefront struct {
	Tenant        Tenant   `json:"tenant"`
	Settings      Settings `json:"settings"`
	CurrentDomain string   `json:"current_domain"`
	CanonicalURL  string   `json:"canonical_url"`
}

// Config holds the resolver policy knobs.
type Config struct {
	// PlatformSuffix mirrors the domain engine's subdomain zone.
	PlatformSuffix string `env:"DOMAINS_PLATFORM_SUFFIX" envDefault:"hauntsites.com"`

	// CacheTTL bounds staleness of cached resolutions. Only successful
	// resolutions are cached, so publishing is visible immediately and
	// unpublishing within one TTL.
	CacheTTL time.Duration `env:"RESOLVER_CACHE_TTL" envDefault:"30s"`

	// DisableSlugFallback turns off slug-based resolution for tenants
	// that already verified a custom domain, forcing canonical access.
	DisableSlugFallback bool `env:"RESOLVER_DISABLE_SLUG_FALLBACK" envDefault:"false"`
}

// errUnresolved carries "no tenant" through the singleflight path without
// caching it; misses are a normal outcome for public traffic.
var errUnresolved = errors.New("resolver: unresolved")

// Service resolves public identifiers to storefront contexts.
type Service struct {
	bindings BindingSource
	tenants  TenantDirectory
	cache    cache.Cache[Storefront]
	cfg      Config
	log      *slog.Logger
}

// New creates a resolver. A nil cache disables caching; a nil log
// discards output.
func New(bindings BindingSource, tenants TenantDirectory, c cache.Cache[Storefront], cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = logger.NewNope()
	}
	return &Service{bindings: bindings, tenants: tenants, cache: c, cfg: cfg, log: log}
}

// Resolve maps a public identifier (raw Host header or tenant slug) to a
// storefront context. A nil, nil return means no published tenant answers
// to the identifier; callers treat that as an ordinary not-found, and the
// outcome is identical for unknown and unpublished tenants.
func (s *Service) Resolve(ctx context.Context, identifier string) (*Storefront, error) {
	host := NormalizeHost(identifier)
	if host == "" {
		return nil, nil
	}

	if s.cache == nil {
		return s.resolve(ctx, host)
	}

	sf, err := cache.GetOrSet(ctx, s.cache, host, func(ctx context.Context) (Storefront, time.Duration, error) {
		resolved, err := s.resolve(ctx, host)
		if err != nil {
			return Storefront{}, 0, err
		}
		if resolved == nil {
			return Storefront{}, 0, errUnresolved
		}
		return *resolved, s.cfg.CacheTTL, nil
	})
	if err != nil {
		if errors.Is(err, errUnresolved) {
			return nil, nil
		}
		return nil, err
	}
	return &sf, nil
}

func (s *Service) resolve(ctx context.Context, host string) (*Storefront, error) {
	tenant, currentDomain, err := s.identify(ctx, host)
	if err != nil || tenant == nil {
		return nil, err
	}

	// Unpublished attractions are invisible to anonymous traffic no
	// matter how valid their domains are.
	settings, err := s.tenants.PublishedSettings(ctx, tenant.ID)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !settings.IsPublished {
		return nil, nil
	}

	return &Storefront{
		Tenant:        *tenant,
		Settings:      *settings,
		CurrentDomain: currentDomain,
		CanonicalURL:  "https://" + s.canonicalHost(ctx, tenant.ID, currentDomain),
	}, nil
}

// identify runs the two-step lookup: active domain binding first, slug
// fallback second.
func (s *Service) identify(ctx context.Context, host string) (*Tenant, string, error) {
	b, err := s.bindings.GetActiveByDomain(ctx, host)
	switch {
	case err == nil:
		tenant, err := s.tenants.TenantByID(ctx, b.TenantID)
		if err != nil {
			if errors.Is(err, ErrTenantNotFound) {
				// A binding without its tenant is a dangling row; log it,
				// the visitor just sees not-found.
				s.log.WarnContext(ctx, "active domain binding references missing tenant",
					slog.String("domain", host),
					slog.String("tenant_id", b.TenantID))
				return nil, "", nil
			}
			return nil, "", err
		}
		return tenant, host, nil
	case !errors.Is(err, domains.ErrBindingNotFound):
		return nil, "", err
	}

	slug, ok := s.slugCandidate(host)
	if !ok {
		return nil, "", nil
	}

	tenant, err := s.tenants.TenantBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, "", nil
		}
		return nil, "", err
	}

	if s.cfg.DisableSlugFallback {
		hasCustom, err := s.bindings.HasActiveCustomDomain(ctx, tenant.ID)
		if err != nil {
			return nil, "", err
		}
		if hasCustom {
			return nil, "", nil
		}
	}

	// No binding row is consulted on this path; the expected subdomain is
	// synthesized from the slug.
	return tenant, slug + "." + s.cfg.PlatformSuffix, nil
}

// slugCandidate extracts a slug from the identifier: either a bare label,
// or a single label directly under the platform suffix.
func (s *Service) slugCandidate(host string) (string, bool) {
	if !strings.Contains(host, ".") {
		return host, true
	}
	label, found := strings.CutSuffix(host, "."+s.cfg.PlatformSuffix)
	if !found || label == "" || strings.Contains(label, ".") {
		return "", false
	}
	return label, true
}

// canonicalHost prefers the tenant's active primary domain, falling back
// to the domain the visitor arrived on.
func (s *Service) canonicalHost(ctx context.Context, tenantID, currentDomain string) string {
	primary, err := s.bindings.PrimaryByTenant(ctx, tenantID)
	if err == nil && primary.IsActive() {
		return primary.Domain
	}
	if err != nil && !errors.Is(err, domains.ErrBindingNotFound) {
		s.log.WarnContext(ctx, "primary domain lookup failed",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()))
	}
	return currentDomain
}
