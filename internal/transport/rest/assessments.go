package rest

import (
	"errors"
	"log"
	"net/http"

	"aptocheck/internal/domain"
	"aptocheck/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) createAssessment(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateAssessmentRequest(r)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			ErrorBadRequest(w, verr.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	result, err := h.assessments.Assess(r.Context(), req.CUIT, userID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCUIT) {
			ErrorBadRequest(w, err.Error())
			return
		}
		log.Printf("[HTTP] assess error: %v", err)
		ErrorInternal(w, "failed to run assessment")
		return
	}

	SuccessCreated(w, "Evaluación completada", result)
}

func (h *Handler) listAssessments(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	filter, err := ParseAssessmentsFilter(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}
	// advisors only see their own assessments
	filter.UserID = &userID

	assessments, err := h.assessments.ListAssessments(r.Context(), filter)
	if err != nil {
		log.Printf("[HTTP] listAssessments error: %v", err)
		ErrorInternal(w, "failed to list assessments")
		return
	}

	Success(w, "", assessments)
}

func (h *Handler) getAssessment(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "assessment_id")
	if id == "" {
		ErrorBadRequest(w, "assessment_id is required")
		return
	}

	assessment, err := h.assessments.GetAssessment(r.Context(), id)
	if err != nil {
		ErrorNotFound(w, "assessment not found")
		return
	}
	if assessment.UserID != userID {
		ErrorNotFound(w, "assessment not found")
		return
	}

	Success(w, "", assessment)
}
