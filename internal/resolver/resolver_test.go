package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hauntworks/platform/internal/domains"
	"github.com/hauntworks/platform/internal/resolver"
	"github.com/hauntworks/platform/pkg/cache"
)

type fakeBindings struct {
	activeByDomain map[string]*domains.Binding
	primaryByID    map[string]*domains.Binding
	hasCustom      map[string]bool
	lookups        int
}

func (f *fakeBindings) GetActiveByDomain(_ context.Context, domain string) (*domains.Binding, error) {
	f.lookups++
	if b, ok := f.activeByDomain[domain]; ok {
		return b, nil
	}
	return nil, domains.ErrBindingNotFound
}

func (f *fakeBindings) PrimaryByTenant(_ context.Context, tenantID string) (*domains.Binding, error) {
	if b, ok := f.primaryByID[tenantID]; ok {
		return b, nil
	}
	return nil, domains.ErrBindingNotFound
}

func (f *fakeBindings) HasActiveCustomDomain(_ context.Context, tenantID string) (bool, error) {
	return f.hasCustom[tenantID], nil
}

type fakeDirectory struct {
	byID     map[string]*resolver.Tenant
	bySlug   map[string]*resolver.Tenant
	settings map[string]*resolver.Settings
}

func (f *fakeDirectory) TenantByID(_ context.Context, id string) (*resolver.Tenant, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, resolver.ErrTenantNotFound
}

func (f *fakeDirectory) TenantBySlug(_ context.Context, slug string) (*resolver.Tenant, error) {
	if t, ok := f.bySlug[slug]; ok {
		return t, nil
	}
	return nil, resolver.ErrTenantNotFound
}

func (f *fakeDirectory) PublishedSettings(_ context.Context, tenantID string) (*resolver.Settings, error) {
	if s, ok := f.settings[tenantID]; ok {
		return s, nil
	}
	return nil, resolver.ErrTenantNotFound
}

func testCfg() resolver.Config {
	return resolver.Config{
		PlatformSuffix: "hauntsites.com",
		CacheTTL:       time.Minute,
	}
}

// fixture: tenant A has an active custom domain (primary) plus subdomain;
// tenant B is slug-only; tenant C is unpublished.
func fixture() (*fakeBindings, *fakeDirectory) {
	tenantA := &resolver.Tenant{ID: "tenant-a", Slug: "spooky", Name: "Spooky Manor"}
	tenantB := &resolver.Tenant{ID: "tenant-b", Slug: "graveyard", Name: "Graveyard Walk"}
	tenantC := &resolver.Tenant{ID: "tenant-c", Slug: "hidden", Name: "Hidden House"}

	customA := &domains.Binding{
		ID: "b1", TenantID: "tenant-a", Domain: "spookymanor.com",
		Type: domains.TypeCustom, Status: domains.StatusActive, IsPrimary: true,
	}
	subA := &domains.Binding{
		ID: "b2", TenantID: "tenant-a", Domain: "spooky.hauntsites.com",
		Type: domains.TypeSubdomain, Status: domains.StatusActive,
	}
	customC := &domains.Binding{
		ID: "b3", TenantID: "tenant-c", Domain: "hiddenhouse.com",
		Type: domains.TypeCustom, Status: domains.StatusActive, IsPrimary: true,
	}

	bindings := &fakeBindings{
		activeByDomain: map[string]*domains.Binding{
			"spookymanor.com":       customA,
			"spooky.hauntsites.com": subA,
			"hiddenhouse.com":       customC,
		},
		primaryByID: map[string]*domains.Binding{
			"tenant-a": customA,
			"tenant-c": customC,
		},
		hasCustom: map[string]bool{"tenant-a": true, "tenant-c": true},
	}
	directory := &fakeDirectory{
		byID:   map[string]*resolver.Tenant{"tenant-a": tenantA, "tenant-b": tenantB, "tenant-c": tenantC},
		bySlug: map[string]*resolver.Tenant{"spooky": tenantA, "graveyard": tenantB, "hidden": tenantC},
		settings: map[string]*resolver.Settings{
			"tenant-a": {IsPublished: true, Title: "Spooky Manor"},
			"tenant-b": {IsPublished: true, Title: "Graveyard Walk"},
			"tenant-c": {IsPublished: false},
		},
	}
	return bindings, directory
}

func TestService_Resolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("active domain wins and carries canonical url", func(t *testing.T) {
		t.Parallel()

		bindings, directory := fixture()
		svc := resolver.New(bindings, directory, nil, testCfg(), nil)

		sf, err := svc.Resolve(ctx, "spooky.hauntsites.com")
		require.NoError(t, err)
		require.NotNil(t, sf)
		require.Equal(t, "tenant-a", sf.Tenant.ID)
		require.Equal(t, "spooky.hauntsites.com", sf.CurrentDomain)
		// Primary custom domain is preferred for the canonical URL.
		require.Equal(t, "https://spookymanor.com", sf.CanonicalURL)
	})

	t.Run("host header port and case are normalized", func(t *testing.T) {
		t.Parallel()

		bindings, directory := fixture()
		svc := resolver.New(bindings, directory, nil, testCfg(), nil)

		sf, err := svc.Resolve(ctx, "SpookyManor.COM:8443")
		require.NoError(t, err)
		require.NotNil(t, sf)
		require.Equal(t, "spookymanor.com", sf.CurrentDomain)
	})

	t.Run("slug fallback synthesizes the subdomain", func(t *testing.T) {
		t.Parallel()

		bindings, directory := fixture()
		svc := resolver.New(bindings, directory, nil, testCfg(), nil)

		for _, identifier := range []string{"graveyard", "graveyard.hauntsites.com"} {
			sf, err := svc.Resolve(ctx, identifier)
			require.NoError(t, err, "identifier=%q", identifier)
			require.NotNil(t, sf)
			require.Equal(t, "tenant-b", sf.Tenant.ID)
			require.Equal(t, "graveyard.hauntsites.com", sf.CurrentDomain)
			require.Equal(t, "https://graveyard.hauntsites.com", sf.CanonicalURL)
		}
	})

	t.Run("unknown identifier resolves to nil", func(t *testing.T) {
		t.Parallel()

		bindings, directory := fixture()
		svc := resolver.New(bindings, directory, nil, testCfg(), nil)

		for _, identifier := range []string{"nobody.example.com", "nobody", "nobody.hauntsites.com", ""} {
			sf, err := svc.Resolve(ctx, identifier)
			require.NoError(t, err, "identifier=%q", identifier)
			require.Nil(t, sf)
		}
	})

	t.Run("unpublished tenant is invisible even with active primary domain", func(t *testing.T) {
		t.Parallel()

		bindings, directory := fixture()
		svc := resolver.New(bindings, directory, nil, testCfg(), nil)

		sf, err := svc.Resolve(ctx, "hiddenhouse.com")
		require.NoError(t, err)
		require.Nil(t, sf)

		sf, err = svc.Resolve(ctx, "hidden")
		require.NoError(t, err)
		require.Nil(t, sf)
	})

	t.Run("foreign multi-label hosts never fall back to slugs", func(t *testing.T) {
		t.Parallel()

		bindings, directory := fixture()
		svc := resolver.New(bindings, directory, nil, testCfg(), nil)

		sf, err := svc.Resolve(ctx, "graveyard.other.com")
		require.NoError(t, err)
		require.Nil(t, sf)
	})

	t.Run("slug fallback can be disabled for custom-domain tenants", func(t *testing.T) {
		t.Parallel()

		bindings, directory := fixture()
		// tenant A's subdomain binding stays resolvable directly, but the
		// slug path is closed once a custom domain is active.
		delete(bindings.activeByDomain, "spooky.hauntsites.com")

		cfg := testCfg()
		cfg.DisableSlugFallback = true
		svc := resolver.New(bindings, directory, nil, cfg, nil)

		sf, err := svc.Resolve(ctx, "spooky")
		require.NoError(t, err)
		require.Nil(t, sf)

		// Tenant B has no custom domain; its slug still resolves.
		sf, err = svc.Resolve(ctx, "graveyard")
		require.NoError(t, err)
		require.NotNil(t, sf)
	})

	t.Run("successful resolutions are cached", func(t *testing.T) {
		t.Parallel()

		bindings, directory := fixture()
		c := cache.NewMemory[resolver.Storefront](time.Minute, 0)
		defer c.Close()

		svc := resolver.New(bindings, directory, c, testCfg(), nil)

		_, err := svc.Resolve(ctx, "spookymanor.com")
		require.NoError(t, err)
		lookupsAfterFirst := bindings.lookups

		sf, err := svc.Resolve(ctx, "spookymanor.com")
		require.NoError(t, err)
		require.NotNil(t, sf)
		require.Equal(t, lookupsAfterFirst, bindings.lookups, "second resolve must hit the cache")
	})

	t.Run("misses are not cached", func(t *testing.T) {
		t.Parallel()

		bindings, directory := fixture()
		c := cache.NewMemory[resolver.Storefront](time.Minute, 0)
		defer c.Close()

		svc := resolver.New(bindings, directory, c, testCfg(), nil)

		sf, err := svc.Resolve(ctx, "late.example.com")
		require.NoError(t, err)
		require.Nil(t, sf)

		// The domain becomes active afterwards; resolution must see it
		// immediately rather than a cached miss.
		bindings.activeByDomain["late.example.com"] = &domains.Binding{
			ID: "b9", TenantID: "tenant-b", Domain: "late.example.com",
			Type: domains.TypeCustom, Status: domains.StatusActive,
		}

		sf, err = svc.Resolve(ctx, "late.example.com")
		require.NoError(t, err)
		require.NotNil(t, sf)
		require.Equal(t, "tenant-b", sf.Tenant.ID)
	})
}

func TestNormalizeHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Example.COM", "example.com"},
		{"example.com:8080", "example.com"},
		{"  example.com.  ", "example.com"},
		{"[::1]:8080", "[::1]"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, resolver.NormalizeHost(tt.in), "in=%q", tt.in)
	}
}
