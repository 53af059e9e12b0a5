package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hauntworks/platform/internal/domains"
	"github.com/hauntworks/platform/internal/httpapi"
	"github.com/hauntworks/platform/internal/resolver"
	"github.com/hauntworks/platform/pkg/dnsverify"
)

const attractionID = "f4b9a9a2-8d6f-4a3e-9a1f-2b7c6d5e4f3a"

type fakeManager struct {
	addErr      error
	verifyErr   error
	primaryErr  error
	deleteErr   error
	ensureErr   error
	ensureCalls int
	lastMethod  dnsverify.Method
}

func (f *fakeManager) binding() *domains.Binding {
	now := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)
	return &domains.Binding{
		ID:                "11111111-1111-1111-1111-111111111111",
		TenantID:          attractionID,
		Domain:            "spookymanor.com",
		Type:              domains.TypeCustom,
		Status:            domains.StatusPending,
		SSLStatus:         domains.SSLPending,
		Method:            dnsverify.MethodTXT,
		VerificationToken: "haunt-verify=deadbeef",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (f *fakeManager) AddDomain(_ context.Context, _, _ string, method dnsverify.Method) (*domains.Binding, *domains.SetupInstructions, error) {
	if f.addErr != nil {
		return nil, nil, f.addErr
	}
	f.lastMethod = method
	b := f.binding()
	return b, &domains.SetupInstructions{
		Method:      dnsverify.MethodTXT,
		RecordType:  "TXT",
		RecordName:  "_haunt-verify.spookymanor.com",
		RecordValue: b.VerificationToken,
		Message:     "create the record",
	}, nil
}

func (f *fakeManager) VerifyDomain(context.Context, string, string) (*domains.Binding, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	b := f.binding()
	b.Status = domains.StatusActive
	b.SSLStatus = domains.SSLProvisioning
	return b, nil
}

func (f *fakeManager) SetPrimaryDomain(context.Context, string, string) error { return f.primaryErr }
func (f *fakeManager) DeleteDomain(context.Context, string, string) error     { return f.deleteErr }

func (f *fakeManager) ListDomains(context.Context, string) ([]domains.Binding, error) {
	return []domains.Binding{*f.binding()}, nil
}

func (f *fakeManager) EnsureSubdomain(context.Context, string, string) error {
	f.ensureCalls++
	return f.ensureErr
}

type fakeResolver struct {
	byIdentifier map[string]*resolver.Storefront
}

func (f *fakeResolver) Resolve(_ context.Context, identifier string) (*resolver.Storefront, error) {
	return f.byIdentifier[resolver.NormalizeHost(identifier)], nil
}

type fakeSettings struct {
	writes int
}

func (f *fakeSettings) UpsertSettings(context.Context, string, string, bool) error {
	f.writes++
	return nil
}

func (f *fakeSettings) TenantByID(_ context.Context, id string) (*resolver.Tenant, error) {
	if id != attractionID {
		return nil, resolver.ErrTenantNotFound
	}
	return &resolver.Tenant{ID: id, Slug: "spooky", Name: "Spooky Manor"}, nil
}

func newServer(t *testing.T, m *fakeManager, res *fakeResolver, s *fakeSettings) *httptest.Server {
	t.Helper()
	if res == nil {
		res = &fakeResolver{}
	}
	srv := httptest.NewServer(httpapi.New(m, res, s, nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestAddDomain(t *testing.T) {
	t.Parallel()

	t.Run("created with setup instructions", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{}, nil, &fakeSettings{})

		resp, body := doJSON(t, http.MethodPost,
			srv.URL+"/api/attractions/"+attractionID+"/domains",
			`{"domain": "Spookymanor.COM"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		instr, ok := body["setup_instructions"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "TXT", instr["record_type"])
		require.Equal(t, "_haunt-verify.spookymanor.com", instr["record_name"])
		require.Equal(t, "haunt-verify=deadbeef", instr["record_value"])
		require.NotEmpty(t, instr["message"])
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{addErr: domains.ErrDomainTaken}, nil, &fakeSettings{})

		resp, body := doJSON(t, http.MethodPost,
			srv.URL+"/api/attractions/"+attractionID+"/domains",
			`{"domain": "spookymanor.com"}`)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Equal(t, "domain registered to another attraction", body["error"])
	})

	t.Run("validation maps to 422", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{addErr: domains.ErrInvalidDomainName}, nil, &fakeSettings{})

		resp, _ := doJSON(t, http.MethodPost,
			srv.URL+"/api/attractions/"+attractionID+"/domains",
			`{"domain": "bad host"}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{}, nil, &fakeSettings{})

		resp, _ := doJSON(t, http.MethodPost,
			srv.URL+"/api/attractions/"+attractionID+"/domains", `{not json`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid attraction id reads as not found", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{}, nil, &fakeSettings{})

		resp, _ := doJSON(t, http.MethodPost,
			srv.URL+"/api/attractions/not-a-uuid/domains",
			`{"domain": "spookymanor.com"}`)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestVerifyDomain(t *testing.T) {
	t.Parallel()

	t.Run("returns activated binding", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{}, nil, &fakeSettings{})

		resp, body := doJSON(t, http.MethodPost,
			srv.URL+"/api/attractions/"+attractionID+"/domains/11111111-1111-1111-1111-111111111111/verify", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "active", body["status"])
		require.Equal(t, "provisioning", body["ssl_status"])
	})

	t.Run("failed verification maps to 422", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{verifyErr: domains.ErrVerificationFailed}, nil, &fakeSettings{})

		resp, body := doJSON(t, http.MethodPost,
			srv.URL+"/api/attractions/"+attractionID+"/domains/x/verify", "")
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.Contains(t, body["error"], "dns verification failed")
	})

	t.Run("unknown binding maps to 404", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{verifyErr: domains.ErrBindingNotFound}, nil, &fakeSettings{})

		resp, _ := doJSON(t, http.MethodPost,
			srv.URL+"/api/attractions/"+attractionID+"/domains/x/verify", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSetPrimaryAndDelete(t *testing.T) {
	t.Parallel()

	t.Run("set primary returns 204", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{}, nil, &fakeSettings{})

		resp, _ := doJSON(t, http.MethodPut,
			srv.URL+"/api/attractions/"+attractionID+"/domains/x/primary", "")
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("unverified primary maps to 422", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{primaryErr: domains.ErrNotVerified}, nil, &fakeSettings{})

		resp, body := doJSON(t, http.MethodPut,
			srv.URL+"/api/attractions/"+attractionID+"/domains/x/primary", "")
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.Equal(t, "cannot set unverified domain as primary", body["error"])
	})

	t.Run("contested promotion maps to 409", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{primaryErr: domains.ErrPrimaryContested}, nil, &fakeSettings{})

		resp, body := doJSON(t, http.MethodPut,
			srv.URL+"/api/attractions/"+attractionID+"/domains/x/primary", "")
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Equal(t, "primary domain changed concurrently", body["error"])
	})

	t.Run("subdomain delete maps to 422", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{deleteErr: domains.ErrSubdomainImmutable}, nil, &fakeSettings{})

		resp, _ := doJSON(t, http.MethodDelete,
			srv.URL+"/api/attractions/"+attractionID+"/domains/x", "")
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("primary delete guard maps to 422", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{deleteErr: domains.ErrPrimaryInUse}, nil, &fakeSettings{})

		resp, body := doJSON(t, http.MethodDelete,
			srv.URL+"/api/attractions/"+attractionID+"/domains/x", "")
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.Equal(t, "set another domain as primary first", body["error"])
	})
}

func TestUpsertStorefront(t *testing.T) {
	t.Parallel()

	t.Run("every write provisions the subdomain", func(t *testing.T) {
		t.Parallel()

		m := &fakeManager{}
		s := &fakeSettings{}
		srv := newServer(t, m, nil, s)

		for range 2 {
			resp, _ := doJSON(t, http.MethodPut,
				srv.URL+"/api/attractions/"+attractionID+"/storefront",
				`{"title": "Spooky Manor", "is_published": true}`)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}
		require.Equal(t, 2, s.writes)
		require.Equal(t, 2, m.ensureCalls)
	})

	t.Run("failed provisioning is repaired by the next write", func(t *testing.T) {
		t.Parallel()

		m := &fakeManager{ensureErr: errors.New("store offline")}
		s := &fakeSettings{}
		srv := newServer(t, m, nil, s)

		resp, _ := doJSON(t, http.MethodPut,
			srv.URL+"/api/attractions/"+attractionID+"/storefront",
			`{"title": "Spooky Manor", "is_published": true}`)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, 1, s.writes, "settings persist even when provisioning fails")

		m.ensureErr = nil
		resp, _ = doJSON(t, http.MethodPut,
			srv.URL+"/api/attractions/"+attractionID+"/storefront",
			`{"title": "Spooky Manor", "is_published": true}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 2, m.ensureCalls, "the retry must provision again")
	})
}

func TestPublicStorefront(t *testing.T) {
	t.Parallel()

	storefront := &resolver.Storefront{
		Tenant:        resolver.Tenant{ID: attractionID, Slug: "spooky", Name: "Spooky Manor"},
		Settings:      resolver.Settings{IsPublished: true, Title: "Spooky Manor"},
		CurrentDomain: "spooky.hauntsites.com",
		CanonicalURL:  "https://spookymanor.com",
	}

	t.Run("resolves by host override", func(t *testing.T) {
		t.Parallel()

		res := &fakeResolver{byIdentifier: map[string]*resolver.Storefront{
			"spooky.hauntsites.com": storefront,
		}}
		srv := newServer(t, &fakeManager{}, res, &fakeSettings{})

		resp, body := doJSON(t, http.MethodGet,
			srv.URL+"/public/storefront?host=spooky.hauntsites.com", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "https://spookymanor.com", body["canonical_url"])
		require.Equal(t, "spooky.hauntsites.com", body["current_domain"])
	})

	t.Run("unresolved identifier is a plain 404", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &fakeManager{}, &fakeResolver{}, &fakeSettings{})

		resp, body := doJSON(t, http.MethodGet,
			srv.URL+"/public/storefront?host=unknown.example.com", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "storefront not found", body["error"])
	})
}
