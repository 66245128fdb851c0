package rest

import (
	"context"
	"net/http"
	"time"

	"aptocheck/internal/domain"
	"aptocheck/internal/repository"
	"aptocheck/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type AssessmentRunner interface {
	Assess(ctx context.Context, rawCUIT string, userID int64) (*service.AssessmentResult, error)
	GetAssessment(ctx context.Context, id string) (*domain.Assessment, error)
	ListAssessments(ctx context.Context, f repository.AssessmentsFilter) ([]domain.Assessment, error)
	CurrentDebt(ctx context.Context, rawCUIT string) (*domain.DebtRecord, error)
	HistoricalDebt(ctx context.Context, rawCUIT string) (*domain.HistoricalRecord, error)
}

type ExportRunner interface {
	StartAssessmentsExport(ctx context.Context, filter repository.AssessmentsFilter, userID int64) (string, error)
	GetExports(ctx context.Context, userID int64) ([]interface{}, error)
	GetExport(ctx context.Context, exportID string, userID int64) (interface{}, error)
}

type Handler struct {
	assessments AssessmentRunner
	exports     ExportRunner
}

func NewHandler(assessments AssessmentRunner, exports ExportRunner) *Handler {
	return &Handler{
		assessments: assessments,
		exports:     exports,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/assessments", func(r chi.Router) {
		r.Post("/", h.createAssessment)
		r.Get("/", h.listAssessments)
		r.Get("/{assessment_id}", h.getAssessment)
	})

	r.Route("/debts", func(r chi.Router) {
		r.Get("/{cuit}", h.getCurrentDebt)
		r.Get("/{cuit}/historical", h.getHistoricalDebt)
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/", h.listExports)
		r.Get("/{export_id}", h.getExport)
		r.Post("/assessments", h.exportAssessments)
	})

	return r
}
