package handle

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"techsync/api/internal/erp"
	"techsync/api/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expires_at"`
	Profile   erp.Profile `json:"profile"`
}

func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.erp.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	s := session.New(p, h.now(), h.sessionTTL)
	if err := h.sessions.Save(r.Context(), s); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("signed in", zap.String("profile_id", p.ID))
	writeJSON(w, http.StatusCreated, loginResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.Format(time.RFC3339),
		Profile:   p,
	})
}

func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	if err := h.sessions.Delete(r.Context(), s.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handle) Me(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	p, err := h.erp.GetProfile(r.Context(), s.ProfileID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handle) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var in erp.ProfileInput
	if !decode(w, r, &in) {
		return
	}
	// Self sign-up always yields an operator; admins are promoted by admins.
	in.Role = erp.RoleOperator
	p, err := h.erp.CreateProfile(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handle) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.canAccessProfile(r, id) {
		writeMessage(w, http.StatusForbidden, "acesso negado")
		return
	}
	p, err := h.erp.GetProfile(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handle) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.canAccessProfile(r, id) {
		writeMessage(w, http.StatusForbidden, "acesso negado")
		return
	}
	var in erp.ProfileInput
	if !decode(w, r, &in) {
		return
	}
	if !h.isAdmin(r) {
		in.Role = ""
	}
	p, err := h.erp.UpdateProfile(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// canAccessProfile lets a profile see itself and admins see everyone.
func (h *Handle) canAccessProfile(r *http.Request, id string) bool {
	s, ok := session.FromContext(r.Context())
	return ok && (s.ProfileID == id || h.isAdmin(r))
}

// isAdmin reads the role from the stored profile; the session's copy goes
// stale when an admin is demoted.
func (h *Handle) isAdmin(r *http.Request) bool {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return false
	}
	p, err := h.erp.GetProfile(r.Context(), s.ProfileID)
	if err != nil {
		return false
	}
	return p.Role == erp.RoleAdmin
}
