package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"aptocheck/internal/clients"
	"aptocheck/internal/domain"
	"aptocheck/internal/metrics"
	"aptocheck/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BureauClient is the outbound contract to the BCRA Central de Deudores API.
type BureauClient interface {
	FetchCurrentDebt(ctx context.Context, cuit string) (*domain.DebtRecord, error)
	FetchHistoricalDebt(ctx context.Context, cuit string) (*domain.HistoricalRecord, error)
}

type AssessmentStore interface {
	Create(ctx context.Context, a *domain.Assessment) error
	GetByID(ctx context.Context, id string) (*domain.Assessment, error)
	List(ctx context.Context, f repository.AssessmentsFilter) ([]domain.Assessment, error)
}

// AssessmentService runs the pre-qualification flow: fetch both bureau
// records (independently, tolerating partial failure), analyze, persist.
// The Redis cache is a latency shim keyed on the normalized CUIT; the flow
// is correct with a nil cache.
type AssessmentService struct {
	bureau  BureauClient
	repo    AssessmentStore
	redis   *clients.RedisClient
	metrics *metrics.Metrics
	log     *logrus.Logger

	cacheTTL time.Duration
	now      func() time.Time
}

func NewAssessmentService(
	bureau BureauClient,
	repo AssessmentStore,
	redis *clients.RedisClient,
	m *metrics.Metrics,
	log *logrus.Logger,
	cacheTTL time.Duration,
) *AssessmentService {
	return &AssessmentService{
		bureau:   bureau,
		repo:     repo,
		redis:    redis,
		metrics:  m,
		log:      log,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// AssessmentResult bundles the persisted assessment with the raw records the
// verdict was derived from plus per-record fetch diagnostics, so the advisor
// UI can show which bureau call (if any) was unavailable.
type AssessmentResult struct {
	Assessment domain.Assessment        `json:"assessment"`
	Current    *domain.DebtRecord       `json:"current"`
	Historical *domain.HistoricalRecord `json:"historical"`
	Warnings   []string                 `json:"warnings,omitempty"`
}

// Assess pre-qualifies one taxpayer. Fetch failures degrade the analysis
// (the corresponding record is treated as absent) rather than aborting it;
// only an invalid CUIT or a persistence failure is an error.
func (s *AssessmentService) Assess(ctx context.Context, rawCUIT string, userID int64) (*AssessmentResult, error) {
	cuit, err := domain.NormalizeCUIT(rawCUIT)
	if err != nil {
		return nil, err
	}

	var (
		wg         sync.WaitGroup
		current    *domain.DebtRecord
		historical *domain.HistoricalRecord
		curErr     error
		histErr    error
	)

	// The two fetches share no state and each must finish (or fail) before
	// the analyzer runs.
	wg.Add(2)
	go func() {
		defer wg.Done()
		current, curErr = s.currentDebt(ctx, cuit)
	}()
	go func() {
		defer wg.Done()
		historical, histErr = s.historicalDebt(ctx, cuit)
	}()
	wg.Wait()

	var warnings []string
	if curErr != nil {
		s.log.WithError(curErr).WithField("cuit", cuit).Warn("current-debt fetch failed, degrading analysis")
		warnings = append(warnings, "deuda actual no disponible: "+curErr.Error())
		current = nil
	}
	if histErr != nil {
		s.log.WithError(histErr).WithField("cuit", cuit).Warn("historical-debt fetch failed, degrading analysis")
		warnings = append(warnings, "historial de deudas no disponible: "+histErr.Error())
		historical = nil
	}

	verdict := Analyze(current, historical, s.now())
	s.metrics.IncrementOutcome(string(verdict.Status))

	name := ""
	switch {
	case current != nil:
		name = current.Name
	case historical != nil:
		name = historical.Name
	}

	assessment := domain.Assessment{
		ID:               uuid.NewString(),
		CUIT:             cuit,
		ClientName:       name,
		Status:           verdict.Status,
		Eligible:         verdict.Eligible,
		CurrentSituation: verdict.CurrentSituation,
		Worst6Months:     verdict.Worst6Months,
		Worst12Months:    verdict.Worst12Months,
		Reasons:          verdict.Reasons,
		UserID:           userID,
		CreatedAt:        verdict.AnalyzedAt,
	}

	if err := s.repo.Create(ctx, &assessment); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	return &AssessmentResult{
		Assessment: assessment,
		Current:    current,
		Historical: historical,
		Warnings:   warnings,
	}, nil
}

func (s *AssessmentService) GetAssessment(ctx context.Context, id string) (*domain.Assessment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AssessmentService) ListAssessments(ctx context.Context, f repository.AssessmentsFilter) ([]domain.Assessment, error) {
	return s.repo.List(ctx, f)
}

// CurrentDebt returns the cached-or-fetched current snapshot for display.
func (s *AssessmentService) CurrentDebt(ctx context.Context, rawCUIT string) (*domain.DebtRecord, error) {
	cuit, err := domain.NormalizeCUIT(rawCUIT)
	if err != nil {
		return nil, err
	}
	return s.currentDebt(ctx, cuit)
}

// HistoricalDebt returns the cached-or-fetched 24-month history for display.
func (s *AssessmentService) HistoricalDebt(ctx context.Context, rawCUIT string) (*domain.HistoricalRecord, error) {
	cuit, err := domain.NormalizeCUIT(rawCUIT)
	if err != nil {
		return nil, err
	}
	return s.historicalDebt(ctx, cuit)
}

func (s *AssessmentService) currentDebt(ctx context.Context, cuit string) (*domain.DebtRecord, error) {
	key := "bcra:deudas:" + cuit
	var cached domain.DebtRecord
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	record, err := s.bureau.FetchCurrentDebt(ctx, cuit)
	s.metrics.ObserveBureauFetch("deudas", fetchOutcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, record)
	return record, nil
}

func (s *AssessmentService) historicalDebt(ctx context.Context, cuit string) (*domain.HistoricalRecord, error) {
	key := "bcra:historicas:" + cuit
	var cached domain.HistoricalRecord
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	record, err := s.bureau.FetchHistoricalDebt(ctx, cuit)
	s.metrics.ObserveBureauFetch("historicas", fetchOutcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, record)
	return record, nil
}

func (s *AssessmentService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.redis == nil || s.cacheTTL <= 0 {
		return false
	}
	data, err := s.redis.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("discarding unreadable cache entry")
		return false
	}
	return true
}

func (s *AssessmentService) cacheSet(ctx context.Context, key string, record any) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, string(data), s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("bureau cache write failed")
	}
}

func fetchOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := clients.KindOf(err); ok {
		return string(kind)
	}
	return "error"
}
