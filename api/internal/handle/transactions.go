package handle

import (
	"bytes"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"techsync/api/internal/erp"
	"techsync/api/internal/report"
)

const dateLayout = "2006-01-02"

// parseFilter reads company_id, client_id, kind, from and to (YYYY-MM-DD or
// RFC 3339). A bare "to" date includes that whole day.
func parseFilter(q url.Values) (erp.TransactionFilter, error) {
	f := erp.TransactionFilter{
		CompanyID: q.Get("company_id"),
		ClientID:  q.Get("client_id"),
		Kind:      erp.TransactionKind(q.Get("kind")),
	}
	if f.Kind != "" && !f.Kind.Valid() {
		return f, &erp.ValidationError{Field: "kind", Message: "tipo deve ser income ou expense"}
	}
	var err error
	if v := q.Get("from"); v != "" {
		if f.From, _, err = parseDate(v); err != nil {
			return f, &erp.ValidationError{Field: "from", Message: "data inválida"}
		}
	}
	if v := q.Get("to"); v != "" {
		var dateOnly bool
		if f.To, dateOnly, err = parseDate(v); err != nil {
			return f, &erp.ValidationError{Field: "to", Message: "data inválida"}
		}
		if dateOnly {
			f.To = f.To.AddDate(0, 0, 1)
		}
	}
	return f, nil
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}

func (h *Handle) ListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	txs, err := h.erp.ListTransactions(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *Handle) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in erp.TransactionInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.erp.CreateTransaction(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handle) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.erp.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handle) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	txs, err := h.erp.ListTransactions(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.TransactionsXLSX(&buf, txs); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="transacoes.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handle) Dashboard(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sum, err := h.dashboard.Summary(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
