package rest

import (
	"errors"
	"log"
	"net/http"

	"aptocheck/internal/clients"
	"aptocheck/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) getCurrentDebt(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")

	record, err := h.assessments.CurrentDebt(r.Context(), cuit)
	if err != nil {
		writeBureauError(w, err)
		return
	}

	Success(w, "", record)
}

func (h *Handler) getHistoricalDebt(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")

	record, err := h.assessments.HistoricalDebt(r.Context(), cuit)
	if err != nil {
		writeBureauError(w, err)
		return
	}

	Success(w, "", record)
}

// writeBureauError maps the bureau error taxonomy onto HTTP responses,
// surfacing the bureau-supplied diagnostics to the advisor.
func writeBureauError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidCUIT) {
		ErrorBadRequest(w, err.Error())
		return
	}

	msg := err.Error()
	if diags := clients.DiagnosticsOf(err); len(diags) > 0 {
		msg = diags[0]
	}

	kind, ok := clients.KindOf(err)
	if !ok {
		log.Printf("[HTTP] bureau error: %v", err)
		ErrorInternal(w, "failed to fetch bureau record")
		return
	}

	switch kind {
	case clients.ErrInvalidIdentifier:
		ErrorBadRequest(w, msg)
	case clients.ErrNotFound:
		ErrorNotFound(w, "sin registros en la central de deudores")
	case clients.ErrUpstreamUnavailable, clients.ErrNetwork, clients.ErrUnexpectedResponse:
		log.Printf("[HTTP] bureau unavailable: %v", err)
		ErrorBadGateway(w, "la central de deudores no está disponible")
	default:
		log.Printf("[HTTP] bureau error: %v", err)
		ErrorInternal(w, "failed to fetch bureau record")
	}
}
