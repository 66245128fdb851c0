package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"aptocheck/internal/domain"
	"aptocheck/internal/repository"

	"github.com/sirupsen/logrus"
)

type fakeBureau struct {
	current    *domain.DebtRecord
	currentErr error

	historical    *domain.HistoricalRecord
	historicalErr error
}

func (f *fakeBureau) FetchCurrentDebt(ctx context.Context, cuit string) (*domain.DebtRecord, error) {
	return f.current, f.currentErr
}

func (f *fakeBureau) FetchHistoricalDebt(ctx context.Context, cuit string) (*domain.HistoricalRecord, error) {
	return f.historical, f.historicalErr
}

type fakeStore struct {
	created   []*domain.Assessment
	createErr error
}

func (f *fakeStore) Create(ctx context.Context, a *domain.Assessment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, a)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.Assessment, error) {
	for _, a := range f.created {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) List(ctx context.Context, filter repository.AssessmentsFilter) ([]domain.Assessment, error) {
	var out []domain.Assessment
	for _, a := range f.created {
		out = append(out, *a)
	}
	return out, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(bureau *fakeBureau, store *fakeStore) *AssessmentService {
	svc := NewAssessmentService(bureau, store, nil, nil, quietLogger(), 0)
	svc.now = func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestAssess_CleanHistory(t *testing.T) {
	bureau := &fakeBureau{
		current: &domain.DebtRecord{
			CUIT: "20123456789",
			Name: "PEREZ JUAN",
			Periods: []domain.Period{
				{Label: "202402", Entities: []domain.Entity{{Name: "Banco A", Situation: 1}}},
			},
		},
		historical: histRecord(
			histPeriod("202402", 1),
			histPeriod("202401", 1),
		),
	}
	store := &fakeStore{}
	svc := newTestService(bureau, store)

	result, err := svc.Assess(context.Background(), "20-12345678-9", 7)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}

	if result.Assessment.CUIT != "20123456789" {
		t.Fatalf("expected normalized CUIT, got %s", result.Assessment.CUIT)
	}
	if result.Assessment.Status != domain.StatusApto || !result.Assessment.Eligible {
		t.Fatalf("expected APTO, got %+v", result.Assessment)
	}
	if result.Assessment.ClientName != "PEREZ JUAN" {
		t.Fatalf("expected client name from the current record, got %q", result.Assessment.ClientName)
	}
	if result.Assessment.UserID != 7 {
		t.Fatalf("expected advisor id 7, got %d", result.Assessment.UserID)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected assessment to be persisted, got %d", len(store.created))
	}
}

func TestAssess_CurrentFetchFailureDegrades(t *testing.T) {
	bureau := &fakeBureau{
		currentErr: errors.New("connection refused"),
		historical: histRecord(
			histPeriod("202402", 1),
			histPeriod("202401", 3),
		),
	}
	store := &fakeStore{}
	svc := newTestService(bureau, store)

	result, err := svc.Assess(context.Background(), "20123456789", 7)
	if err != nil {
		t.Fatalf("a failed fetch must degrade, not abort: %v", err)
	}

	if result.Assessment.Status != domain.StatusNoApto {
		t.Fatalf("expected NO_APTO from the surviving history, got %s", result.Assessment.Status)
	}
	if result.Current != nil {
		t.Fatal("failed current fetch must yield a nil record")
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "deuda actual no disponible") {
		t.Fatalf("expected a current-debt warning, got %v", result.Warnings)
	}
}

func TestAssess_BothFetchesFail(t *testing.T) {
	bureau := &fakeBureau{
		currentErr:    errors.New("timeout"),
		historicalErr: errors.New("timeout"),
	}
	store := &fakeStore{}
	svc := newTestService(bureau, store)

	result, err := svc.Assess(context.Background(), "20123456789", 7)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}

	if result.Assessment.Status != domain.StatusPending {
		t.Fatalf("expected PENDING without any data, got %s", result.Assessment.Status)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("expected both fetch warnings, got %v", result.Warnings)
	}
	if len(store.created) != 1 {
		t.Fatal("a PENDING assessment is still persisted")
	}
}

func TestAssess_InvalidCUIT(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(&fakeBureau{}, store)

	_, err := svc.Assess(context.Background(), "123", 7)
	if !errors.Is(err, domain.ErrInvalidCUIT) {
		t.Fatalf("expected ErrInvalidCUIT, got %v", err)
	}
	if len(store.created) != 0 {
		t.Fatal("nothing must be persisted for an invalid CUIT")
	}
}

func TestAssess_PersistenceFailure(t *testing.T) {
	bureau := &fakeBureau{historical: histRecord(histPeriod("202402", 1))}
	store := &fakeStore{createErr: errors.New("db down")}
	svc := newTestService(bureau, store)

	_, err := svc.Assess(context.Background(), "20123456789", 7)
	if err == nil || !strings.Contains(err.Error(), "save assessment") {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestAssess_NameFallsBackToHistory(t *testing.T) {
	bureau := &fakeBureau{
		currentErr: errors.New("unavailable"),
		historical: histRecord(histPeriod("202402", 1)),
	}
	store := &fakeStore{}
	svc := newTestService(bureau, store)

	result, err := svc.Assess(context.Background(), "20123456789", 7)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if result.Assessment.ClientName != "PEREZ JUAN" {
		t.Fatalf("expected name from the historical record, got %q", result.Assessment.ClientName)
	}
}
