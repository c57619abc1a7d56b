package handle

import (
	"net/http"

	"techsync/api/internal/docid"
)

type validateRequest struct {
	Value string `json:"value"`
}

type validateResponse struct {
	Valid     bool       `json:"valid"`
	Kind      docid.Kind `json:"kind"`
	Formatted string     `json:"formatted,omitempty"`
}

// An invalid document is a normal answer, not an error: all three endpoints
// respond 200.

func (h *Handle) ValidateCPF(w http.ResponseWriter, r *http.Request) {
	h.validate(w, r, func(v string) (docid.Kind, bool) {
		return docid.KindCPF, docid.ValidateCPF(v)
	})
}

func (h *Handle) ValidateCNPJ(w http.ResponseWriter, r *http.Request) {
	h.validate(w, r, func(v string) (docid.Kind, bool) {
		return docid.KindCNPJ, docid.ValidateCNPJ(v)
	})
}

func (h *Handle) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	h.validate(w, r, docid.Validate)
}

func (h *Handle) validate(w http.ResponseWriter, r *http.Request, check func(string) (docid.Kind, bool)) {
	var req validateRequest
	if !decode(w, r, &req) {
		return
	}
	kind, ok := check(req.Value)
	h.metrics.IncValidation(string(kind), ok)

	resp := validateResponse{Valid: ok, Kind: kind}
	if ok {
		_, resp.Formatted, _ = docid.Format(req.Value)
	}
	writeJSON(w, http.StatusOK, resp)
}
