package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aptocheck/internal/clients"
	"aptocheck/internal/domain"
	"aptocheck/internal/repository"
	"aptocheck/internal/service"
	"aptocheck/internal/transport/auth"
)

type fakeAssessments struct {
	result    *service.AssessmentResult
	assessErr error

	assessment *domain.Assessment
	getErr     error

	list    []domain.Assessment
	listErr error

	current    *domain.DebtRecord
	currentErr error

	historical    *domain.HistoricalRecord
	historicalErr error

	lastFilter repository.AssessmentsFilter
}

func (f *fakeAssessments) Assess(ctx context.Context, rawCUIT string, userID int64) (*service.AssessmentResult, error) {
	if _, err := domain.NormalizeCUIT(rawCUIT); err != nil {
		return nil, err
	}
	return f.result, f.assessErr
}

func (f *fakeAssessments) GetAssessment(ctx context.Context, id string) (*domain.Assessment, error) {
	return f.assessment, f.getErr
}

func (f *fakeAssessments) ListAssessments(ctx context.Context, filter repository.AssessmentsFilter) ([]domain.Assessment, error) {
	f.lastFilter = filter
	return f.list, f.listErr
}

func (f *fakeAssessments) CurrentDebt(ctx context.Context, rawCUIT string) (*domain.DebtRecord, error) {
	return f.current, f.currentErr
}

func (f *fakeAssessments) HistoricalDebt(ctx context.Context, rawCUIT string) (*domain.HistoricalRecord, error) {
	return f.historical, f.historicalErr
}

type fakeExports struct {
	exportID string
	startErr error

	exports []interface{}
	export  interface{}
	getErr  error

	lastExportID string
}

func (f *fakeExports) StartAssessmentsExport(ctx context.Context, filter repository.AssessmentsFilter, userID int64) (string, error) {
	return f.exportID, f.startErr
}

func (f *fakeExports) GetExports(ctx context.Context, userID int64) ([]interface{}, error) {
	return f.exports, f.getErr
}

func (f *fakeExports) GetExport(ctx context.Context, exportID string, userID int64) (interface{}, error) {
	f.lastExportID = exportID
	return f.export, f.getErr
}

// injectUser stands in for the token middleware in tests.
func injectUser(userID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), auth.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestServer(t *testing.T, assessments *fakeAssessments, exports *fakeExports, userID int64) *httptest.Server {
	t.Helper()
	h := NewHandler(assessments, exports)
	server := httptest.NewServer(h.InitRouterWithAuth(injectUser(userID)))
	t.Cleanup(server.Close)
	return server
}

func decodeResponse(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var out APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestCreateAssessment(t *testing.T) {
	eligible := 1
	assessments := &fakeAssessments{
		result: &service.AssessmentResult{
			Assessment: domain.Assessment{
				ID:               "a-1",
				CUIT:             "20123456789",
				Status:           domain.StatusApto,
				Eligible:         true,
				CurrentSituation: &eligible,
				UserID:           7,
			},
		},
	}
	server := newTestServer(t, assessments, &fakeExports{}, 7)

	resp, err := http.Post(server.URL+"/assessments", "application/json",
		strings.NewReader(`{"cuit": "20-12345678-9"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	body := decodeResponse(t, resp)
	if body.Status != "success" {
		t.Fatalf("expected success, got %+v", body)
	}
}

func TestCreateAssessment_MissingCUIT(t *testing.T) {
	server := newTestServer(t, &fakeAssessments{}, &fakeExports{}, 7)

	resp, err := http.Post(server.URL+"/assessments", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeResponse(t, resp)
	if body.Message != "cuit is required" {
		t.Fatalf("unexpected message: %q", body.Message)
	}
}

func TestCreateAssessment_InvalidCUIT(t *testing.T) {
	server := newTestServer(t, &fakeAssessments{}, &fakeExports{}, 7)

	resp, err := http.Post(server.URL+"/assessments", "application/json",
		strings.NewReader(`{"cuit": "123"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateAssessment_Unauthorized(t *testing.T) {
	// no auth middleware -> no user in context
	h := NewHandler(&fakeAssessments{}, &fakeExports{})
	server := httptest.NewServer(h.InitRouter())
	defer server.Close()

	resp, err := http.Post(server.URL+"/assessments", "application/json",
		strings.NewReader(`{"cuit": "20123456789"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListAssessments_ScopedToAdvisor(t *testing.T) {
	assessments := &fakeAssessments{list: []domain.Assessment{{ID: "a-1", UserID: 7}}}
	server := newTestServer(t, assessments, &fakeExports{}, 7)

	resp, err := http.Get(server.URL + "/assessments?status=APTO&limit=10")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if assessments.lastFilter.UserID == nil || *assessments.lastFilter.UserID != 7 {
		t.Fatalf("list must be scoped to the caller, got %+v", assessments.lastFilter)
	}
	if assessments.lastFilter.Status == nil || *assessments.lastFilter.Status != "APTO" {
		t.Fatalf("status filter lost: %+v", assessments.lastFilter)
	}
	if assessments.lastFilter.Limit != 10 {
		t.Fatalf("limit filter lost: %+v", assessments.lastFilter)
	}
}

func TestGetAssessment_OtherAdvisorIsHidden(t *testing.T) {
	assessments := &fakeAssessments{assessment: &domain.Assessment{ID: "a-1", UserID: 99}}
	server := newTestServer(t, assessments, &fakeExports{}, 7)

	resp, err := http.Get(server.URL + "/assessments/a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for another advisor's assessment, got %d", resp.StatusCode)
	}
}

func TestGetCurrentDebt_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid cuit", domain.ErrInvalidCUIT, http.StatusBadRequest},
		{"not found", &clients.BureauError{Kind: clients.ErrNotFound, Status: 404, Messages: []string{"sin datos"}}, http.StatusNotFound},
		{"invalid identifier", &clients.BureauError{Kind: clients.ErrInvalidIdentifier, Status: 400, Messages: []string{"CUIT inválido"}}, http.StatusBadRequest},
		{"upstream down", &clients.BureauError{Kind: clients.ErrUpstreamUnavailable, Status: 500}, http.StatusBadGateway},
		{"network", &clients.BureauError{Kind: clients.ErrNetwork, Underlying: errors.New("dial tcp")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assessments := &fakeAssessments{currentErr: tc.err}
			server := newTestServer(t, assessments, &fakeExports{}, 7)

			resp, err := http.Get(server.URL + "/debts/20123456789")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestGetHistoricalDebt(t *testing.T) {
	assessments := &fakeAssessments{
		historical: &domain.HistoricalRecord{
			CUIT: "20123456789",
			Periods: []domain.HistoricalPeriod{
				{Label: "202402", Entities: []domain.HistoricalEntity{{Name: "Banco A", Situation: 1}}},
			},
		},
	}
	server := newTestServer(t, assessments, &fakeExports{}, 7)

	resp, err := http.Get(server.URL + "/debts/20123456789/historical")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeResponse(t, resp)
	if body.Status != "success" {
		t.Fatalf("expected success, got %+v", body)
	}
}

func TestExportAssessments(t *testing.T) {
	exports := &fakeExports{exportID: "exports:abc"}
	server := newTestServer(t, &fakeAssessments{}, exports, 7)

	resp, err := http.Post(server.URL+"/export/assessments", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	body := decodeResponse(t, resp)
	data, ok := body.Data.(map[string]interface{})
	if !ok || data["export_id"] != "exports:abc" {
		t.Fatalf("expected export_id in response, got %+v", body.Data)
	}
}

func TestGetExport_PrefixesID(t *testing.T) {
	exports := &fakeExports{export: map[string]interface{}{"id": "exports:abc"}}
	server := newTestServer(t, &fakeAssessments{}, exports, 7)

	resp, err := http.Get(server.URL + "/export/abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if exports.lastExportID != "exports:abc" {
		t.Fatalf("expected prefixed export id, got %q", exports.lastExportID)
	}
}
