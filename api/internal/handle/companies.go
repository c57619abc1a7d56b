package handle

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"techsync/api/internal/erp"
)

func (h *Handle) ListCompanies(w http.ResponseWriter, r *http.Request) {
	cs, err := h.erp.ListCompanies(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handle) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var in erp.CompanyInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.erp.CreateCompany(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handle) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.erp.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handle) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var in erp.CompanyInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.erp.UpdateCompany(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handle) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.erp.DeleteCompany(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handle) ListClients(w http.ResponseWriter, r *http.Request) {
	cs, err := h.erp.ListClients(r.Context(), r.URL.Query().Get("company_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handle) CreateClient(w http.ResponseWriter, r *http.Request) {
	var in erp.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.erp.CreateClient(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handle) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.erp.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handle) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var in erp.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.erp.UpdateClient(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handle) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.erp.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
