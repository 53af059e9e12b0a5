package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hauntworks/platform/internal/domains"
	"github.com/hauntworks/platform/pkg/dnsverify"
)

type bindingResponse struct {
	ID                 string     `json:"id"`
	Domain             string     `json:"domain"`
	Type               string     `json:"domain_type"`
	IsPrimary          bool       `json:"is_primary"`
	Status             string     `json:"status"`
	SSLStatus          string     `json:"ssl_status"`
	VerificationMethod string     `json:"verification_method,omitempty"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toBindingResponse(b *domains.Binding) bindingResponse {
	return bindingResponse{
		ID:                 b.ID,
		Domain:             b.Domain,
		Type:               string(b.Type),
		IsPrimary:          b.IsPrimary,
		Status:             string(b.Status),
		SSLStatus:          string(b.SSLStatus),
		VerificationMethod: string(b.Method),
		VerifiedAt:         b.VerifiedAt,
		CreatedAt:          b.CreatedAt,
	}
}

// attractionID pulls and validates the tenant id path parameter. An
// invalid id reads as not-found so the API never confirms which ids
// exist.
func attractionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "attractionID")
	if uuid.Validate(id) != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "attraction not found"})
		return "", false
	}
	return id, true
}

type addDomainRequest struct {
	Domain string `json:"domain"`
	Method string `json:"verification_method,omitempty"`
}

type addDomainResponse struct {
	Binding      bindingResponse            `json:"domain"`
	Instructions *domains.SetupInstructions `json:"setup_instructions"`
}

func (h *Handler) addDomain(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := attractionID(w, r)
	if !ok {
		return
	}

	var req addDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	b, instructions, err := h.domains.AddDomain(r.Context(), tenantID, req.Domain, dnsverify.Method(req.Method))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, addDomainResponse{
		Binding:      toBindingResponse(b),
		Instructions: instructions,
	})
}

func (h *Handler) verifyDomain(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := attractionID(w, r)
	if !ok {
		return
	}

	b, err := h.domains.VerifyDomain(r.Context(), tenantID, chi.URLParam(r, "domainID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

func (h *Handler) setPrimaryDomain(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := attractionID(w, r)
	if !ok {
		return
	}

	if err := h.domains.SetPrimaryDomain(r.Context(), tenantID, chi.URLParam(r, "domainID")); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteDomain(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := attractionID(w, r)
	if !ok {
		return
	}

	if err := h.domains.DeleteDomain(r.Context(), tenantID, chi.URLParam(r, "domainID")); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDomains(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := attractionID(w, r)
	if !ok {
		return
	}

	all, err := h.domains.ListDomains(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]bindingResponse, 0, len(all))
	for i := range all {
		out = append(out, toBindingResponse(&all[i]))
	}
	writeJSON(w, http.StatusOK, map[string][]bindingResponse{"domains": out})
}
