package domains

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hauntworks/platform/pkg/dnsverify"
	"github.com/hauntworks/platform/pkg/logger"
)

// Verifier evaluates a DNS ownership proof. Satisfied by dnsverify.Verifier
// and dnsverify.Static.
type Verifier interface {
	Verify(ctx context.Context, domain string, method dnsverify.Method, token string) error
}

// Config holds the lifecycle policy knobs.
type Config struct {
	// PlatformSuffix is the zone under which attraction subdomains live,
	// e.g. "hauntsites.com".
	PlatformSuffix string `env:"DOMAINS_PLATFORM_SUFFIX" envDefault:"hauntsites.com"`

	// CNAMETarget is the canonical routing host custom domains point at.
	CNAMETarget string `env:"DOMAINS_CNAME_TARGET" envDefault:"edge.hauntsites.com"`

	// TokenSecret keys the HMAC that derives verification tokens.
	TokenSecret string `env:"DOMAINS_TOKEN_SECRET,required"`

	// VerifyTimeout bounds a single DNS verification round trip.
	VerifyTimeout time.Duration `env:"DOMAINS_VERIFY_TIMEOUT" envDefault:"5s"`

	// ReverifyCooldown throttles repeated verification attempts on a
	// non-active binding. Zero disables throttling.
	ReverifyCooldown time.Duration `env:"DOMAINS_REVERIFY_COOLDOWN" envDefault:"0"`
}

// reservedLabels cannot be claimed as attraction subdomains; they are in
// use by the platform itself.
var reservedLabels = map[string]bool{
	"www":   true,
	"api":   true,
	"app":   true,
	"admin": true,
	"edge":  true,
}

// Service is the domain lifecycle manager. All binding mutation flows
// through its operations; each owns its own transaction boundary via the
// store.
type Service struct {
	store    Store
	verifier Verifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates the lifecycle manager. A nil log discards output.
func NewService(store Store, verifier Verifier, cfg Config, log *slog.Logger) *Service {
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NewNope()
	}
	return &Service{
		store:    store,
		verifier: verifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// AddDomain registers a custom domain for an attraction and returns the
// pending binding together with the DNS record the operator must publish.
// An empty method defaults to TXT verification.
func (s *Service) AddDomain(ctx context.Context, tenantID, rawDomain string, method dnsverify.Method) (*Binding, *SetupInstructions, error) {
	domain, err := NormalizeDomain(rawDomain)
	if err != nil {
		return nil, nil, err
	}

	// Hostnames under the platform zone are provisioned, never added.
	if domain == s.cfg.PlatformSuffix || strings.HasSuffix(domain, "."+s.cfg.PlatformSuffix) {
		return nil, nil, fmt.Errorf("%w: %s is a platform domain", ErrInvalidDomainName, domain)
	}

	switch method {
	case "":
		method = dnsverify.MethodTXT
	case dnsverify.MethodTXT, dnsverify.MethodCNAME:
	default:
		return nil, nil, fmt.Errorf("%w: unknown verification method %q", ErrInvalidDomainName, method)
	}

	// Pre-check so the caller gets a message that says whose binding is in
	// the way. The unique index behind Create closes the race this check
	// leaves open; a concurrent add surfaces as ErrDomainTaken below.
	if existing, err := s.store.GetByDomain(ctx, domain); err == nil {
		if existing.TenantID == tenantID {
			return nil, nil, ErrDomainAlreadyAdded
		}
		return nil, nil, ErrDomainTaken
	} else if !errors.Is(err, ErrBindingNotFound) {
		return nil, nil, err
	}

	now := s.now()
	b := &Binding{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		Domain:            domain,
		Type:              TypeCustom,
		Status:            StatusPending,
		SSLStatus:         SSLPending,
		Method:            method,
		VerificationToken: VerificationToken(s.cfg.TokenSecret, tenantID),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.Create(ctx, b); err != nil {
		return nil, nil, err
	}

	s.log.InfoContext(ctx, "custom domain added",
		slog.String("tenant_id", tenantID),
		slog.String("domain", domain),
		slog.String("method", string(method)))

	return b, s.Instructions(b), nil
}

// VerifyDomain runs the DNS proof for a pending or failed binding and
// transitions it to active or failed. Calling it on an already active
// binding is a no-op that performs no DNS query. A failed binding is always
// retryable, subject only to the optional cooldown.
func (s *Service) VerifyDomain(ctx context.Context, tenantID, domainID string) (*Binding, error) {
	b, err := s.store.GetByID(ctx, tenantID, domainID)
	if err != nil {
		return nil, err
	}

	if b.IsActive() {
		return b, nil
	}

	now := s.now()
	if s.cfg.ReverifyCooldown > 0 && b.LastCheckedAt != nil {
		if wait := s.cfg.ReverifyCooldown - now.Sub(*b.LastCheckedAt); wait > 0 {
			return nil, fmt.Errorf("%w: retry in %s", ErrVerifyThrottled, wait.Round(time.Second))
		}
	}

	verifyCtx, cancel := context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	defer cancel()

	verifyErr := s.verifier.Verify(verifyCtx, b.Domain, b.Method, b.VerificationToken)

	b.LastCheckedAt = &now
	b.UpdatedAt = now

	if verifyErr != nil {
		// Infrastructure failures (resolver timeout, network) are kept
		// apart from plain "record not there yet" for observability, but
		// both leave the binding failed and retryable.
		if errors.Is(verifyErr, dnsverify.ErrLookupFailed) {
			s.log.ErrorContext(ctx, "dns verification lookup failed",
				slog.String("tenant_id", tenantID),
				slog.String("domain", b.Domain),
				slog.String("error", verifyErr.Error()))
		} else {
			s.log.InfoContext(ctx, "dns verification did not pass",
				slog.String("tenant_id", tenantID),
				slog.String("domain", b.Domain),
				slog.String("error", verifyErr.Error()))
		}

		b.Status = StatusFailed
		if err := s.store.Update(ctx, b); err != nil {
			if errors.Is(err, ErrConcurrentVerification) {
				// Another request proved ownership while this check was in
				// flight; the activation stands.
				return s.store.GetByID(ctx, tenantID, domainID)
			}
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, verifyErr)
	}

	b.Status = StatusActive
	b.SSLStatus = SSLProvisioning
	if b.VerifiedAt == nil {
		b.VerifiedAt = &now
	}
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "custom domain verified",
		slog.String("tenant_id", tenantID),
		slog.String("domain", b.Domain))

	return b, nil
}

// SetPrimaryDomain promotes an active binding to the attraction's primary.
// The clear-and-set across the tenant's bindings happens atomically in the
// store so no interleaving leaves zero or two primaries.
func (s *Service) SetPrimaryDomain(ctx context.Context, tenantID, domainID string) error {
	b, err := s.store.GetByID(ctx, tenantID, domainID)
	if err != nil {
		return err
	}
	if !b.IsActive() {
		return ErrNotVerified
	}

	if err := s.store.SetPrimary(ctx, tenantID, domainID); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "primary domain changed",
		slog.String("tenant_id", tenantID),
		slog.String("domain", b.Domain))
	return nil
}

// DeleteDomain removes a custom binding. The auto-generated subdomain is
// never deletable, and a primary binding can only go when it is the
// attraction's last one.
func (s *Service) DeleteDomain(ctx context.Context, tenantID, domainID string) error {
	b, err := s.store.GetByID(ctx, tenantID, domainID)
	if err != nil {
		return err
	}

	if b.Type == TypeSubdomain {
		return ErrSubdomainImmutable
	}

	if b.IsPrimary {
		all, err := s.store.ListByTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		if len(all) > 1 {
			return ErrPrimaryInUse
		}
	}

	// The store re-evaluates the primary guard atomically with the delete,
	// so a concurrent add cannot slip between the check above and here.
	if err := s.store.Delete(ctx, tenantID, domainID); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "custom domain deleted",
		slog.String("tenant_id", tenantID),
		slog.String("domain", b.Domain))
	return nil
}

// ListDomains returns all bindings of an attraction.
func (s *Service) ListDomains(ctx context.Context, tenantID string) ([]Binding, error) {
	return s.store.ListByTenant(ctx, tenantID)
}

// EnsureSubdomain provisions the attraction's default subdomain binding.
// Idempotent: if the subdomain already exists the call is a no-op. The
// binding is born active and primary because the platform controls its DNS.
func (s *Service) EnsureSubdomain(ctx context.Context, tenantID, slug string) error {
	if _, err := s.store.SubdomainByTenant(ctx, tenantID); err == nil {
		return nil
	} else if !errors.Is(err, ErrBindingNotFound) {
		return err
	}

	slug = strings.ToLower(strings.TrimSpace(slug))
	if err := ValidateSlugLabel(slug); err != nil {
		return err
	}
	if reservedLabels[slug] {
		return fmt.Errorf("%w: %q", ErrReservedSubdomain, slug)
	}

	// Born primary unless the attraction somehow promoted a custom domain
	// before its first storefront write.
	isPrimary := true
	if _, err := s.store.PrimaryByTenant(ctx, tenantID); err == nil {
		isPrimary = false
	} else if !errors.Is(err, ErrBindingNotFound) {
		return err
	}

	now := s.now()
	b := &Binding{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		Domain:            slug + "." + s.cfg.PlatformSuffix,
		Type:              TypeSubdomain,
		IsPrimary:         isPrimary,
		Status:            StatusActive,
		SSLStatus:         SSLActive,
		VerificationToken: VerificationToken(s.cfg.TokenSecret, tenantID),
		VerifiedAt:        &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.Create(ctx, b); err != nil {
		// A concurrent EnsureSubdomain for the same attraction may win the
		// insert; that still satisfies this call.
		if errors.Is(err, ErrDomainTaken) {
			if _, subErr := s.store.SubdomainByTenant(ctx, tenantID); subErr == nil {
				return nil
			}
		}
		return err
	}

	s.log.InfoContext(ctx, "subdomain provisioned",
		slog.String("tenant_id", tenantID),
		slog.String("domain", b.Domain))
	return nil
}
