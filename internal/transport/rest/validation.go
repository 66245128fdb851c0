package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"aptocheck/internal/repository"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type AssessmentRequest struct {
	CUIT string `json:"cuit"`
}

func ValidateAssessmentRequest(r *http.Request) (*AssessmentRequest, error) {
	var req AssessmentRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return nil, err
	}

	if req.CUIT == "" {
		return nil, &ValidationError{Field: "cuit", Message: "cuit is required"}
	}

	return &req, nil
}

// ParseAssessmentsFilter builds a repository filter from list query params.
// Status values are validated upstream by the repository enum column; here
// only shapes are checked.
func ParseAssessmentsFilter(r *http.Request) (repository.AssessmentsFilter, error) {
	f := repository.AssessmentsFilter{}
	q := r.URL.Query()

	if cuit := q.Get("cuit"); cuit != "" {
		f.CUIT = &cuit
	}
	if status := q.Get("status"); status != "" {
		f.Status = &status
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return f, &ValidationError{Field: "limit", Message: "limit must be a non-negative integer"}
		}
		f.Limit = n
	}

	return f, nil
}
