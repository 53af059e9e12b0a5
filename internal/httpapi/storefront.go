package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hauntworks/platform/internal/resolver"
)

type storefrontSettingsRequest struct {
	Title       string `json:"title"`
	IsPublished bool   `json:"is_published"`
}

// upsertStorefront saves the attraction's storefront settings and makes
// sure its platform subdomain exists. Provisioning runs on every write;
// EnsureSubdomain is idempotent, one indexed lookup once the subdomain
// is there, so a failed attempt is repaired by the next save.
func (h *Handler) upsertStorefront(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := attractionID(w, r)
	if !ok {
		return
	}

	var req storefrontSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	tenant, err := h.settings.TenantByID(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, resolver.ErrTenantNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "attraction not found"})
			return
		}
		h.writeError(w, r, err)
		return
	}

	if err := h.settings.UpsertSettings(r.Context(), tenantID, req.Title, req.IsPublished); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.domains.EnsureSubdomain(r.Context(), tenantID, tenant.Slug); err != nil {
		// The settings are saved; the provisioning failure surfaces here
		// and the next write repairs it.
		h.log.ErrorContext(r.Context(), "subdomain provisioning failed",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()))
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"title":        req.Title,
		"is_published": req.IsPublished,
	})
}

// publicStorefront resolves the visitor's Host header (or an explicit
// ?host= override used by edge proxies) to a storefront context. Unknown
// and unpublished tenants get the same 404.
func (h *Handler) publicStorefront(w http.ResponseWriter, r *http.Request) {
	identifier := r.URL.Query().Get("host")
	if identifier == "" {
		identifier = r.Host
	}

	sf, err := h.resolver.Resolve(r.Context(), identifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if sf == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "storefront not found"})
		return
	}

	writeJSON(w, http.StatusOK, sf)
}
