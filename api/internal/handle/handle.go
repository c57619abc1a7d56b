// Package handle exposes the ERP, the document validator and the assistant
// over a JSON REST API.
package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"techsync/api/internal/assistant"
	"techsync/api/internal/dashboard"
	"techsync/api/internal/erp"
	"techsync/api/internal/llm"
	"techsync/api/internal/metrics"
	"techsync/api/internal/session"
)

const maxRequestTimeout = 10 * time.Minute

type Handle struct {
	erp       *erp.Service
	dashboard *dashboard.Service
	sessions  session.Store
	assistant *assistant.Pipeline
	engs      *llm.Engines
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	logger    *zap.Logger

	askTimeout time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// Deps collects what New needs. Engines and Gatherer are optional.
type Deps struct {
	ERP        *erp.Service
	Dashboard  *dashboard.Service
	Sessions   session.Store
	Assistant  *assistant.Pipeline
	Engines    *llm.Engines
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
	AskTimeout time.Duration
	SessionTTL time.Duration
}

func New(d Deps) *Handle {
	h := &Handle{
		erp:        d.ERP,
		dashboard:  d.Dashboard,
		sessions:   d.Sessions,
		assistant:  d.Assistant,
		engs:       d.Engines,
		metrics:    d.Metrics,
		gatherer:   d.Gatherer,
		logger:     d.Logger,
		askTimeout: d.AskTimeout,
		sessionTTL: d.SessionTTL,
		now:        time.Now,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.askTimeout <= 0 {
		h.askTimeout = 180 * time.Second
	}
	if h.sessionTTL <= 0 {
		h.sessionTTL = 12 * time.Hour
	}
	if h.gatherer == nil {
		h.gatherer = prometheus.DefaultGatherer
	}
	return h
}

func (h *Handle) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate/cpf", h.ValidateCPF)
		r.Post("/validate/cnpj", h.ValidateCNPJ)
		r.Post("/validate/document", h.ValidateDocument)

		r.Post("/sessions", h.Login)
		r.Post("/profiles", h.CreateProfile)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)

			r.Delete("/sessions", h.Logout)
			r.Get("/me", h.Me)
			r.Get("/profiles/{id}", h.GetProfile)
			r.Put("/profiles/{id}", h.UpdateProfile)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", h.ListCompanies)
				r.Post("/", h.CreateCompany)
				r.Get("/{id}", h.GetCompany)
				r.Put("/{id}", h.UpdateCompany)
				r.Delete("/{id}", h.DeleteCompany)
			})
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.ListClients)
				r.Post("/", h.CreateClient)
				r.Get("/{id}", h.GetClient)
				r.Put("/{id}", h.UpdateClient)
				r.Delete("/{id}", h.DeleteClient)
			})
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.ListTransactions)
				r.Post("/", h.CreateTransaction)
				r.Get("/export.xlsx", h.ExportTransactions)
				r.Delete("/{id}", h.DeleteTransaction)
			})
			r.Get("/dashboard", h.Dashboard)
			r.Post("/assistant/ask", h.Ask)
		})
	})
	return r
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and reported as 500 without details.
func (h *Handle) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *erp.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, erp.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "não encontrado")
	case errors.Is(err, erp.ErrConflict):
		writeMessage(w, http.StatusConflict, "registro em conflito com dados existentes")
	case errors.Is(err, erp.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "e-mail ou senha inválidos")
	case errors.Is(err, context.DeadlineExceeded):
		writeMessage(w, http.StatusGatewayTimeout, "tempo esgotado")
	default:
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "erro interno")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json: "+err.Error())
		return false
	}
	return true
}

// requestContext bounds r by X-Request-Timeout seconds, or def when the
// header is absent or unusable.
func requestContext(r *http.Request, def time.Duration) (context.Context, context.CancelFunc) {
	d := def
	if v := strings.TrimSpace(r.Header.Get("X-Request-Timeout")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			d = min(time.Duration(n)*time.Second, maxRequestTimeout)
		}
	}
	return context.WithTimeout(r.Context(), d)
}
