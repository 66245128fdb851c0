package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"aptocheck/internal/clients"
	"aptocheck/internal/domain"
	"aptocheck/internal/metrics"
	"aptocheck/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute
)

// ExportStatus is the Redis-backed progress record of one report export.
type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	UserID   int64     `json:"user_id"`
	Filters  any       `json:"filters"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Created  time.Time `json:"created_at"`
}

// ExportService generates XLSX reports of an advisor's assessment history.
// Progress and results live in Redis with a short TTL; the file is stored
// locally and optionally uploaded to S3 for a presigned download URL.
type ExportService struct {
	repo    AssessmentStore
	redis   *clients.RedisClient
	storage *clients.StorageClient
	s3      *clients.S3Client
	ws      *clients.WebSocketClient
	metrics *metrics.Metrics
	log     *logrus.Logger
}

func NewExportService(
	repo AssessmentStore,
	redis *clients.RedisClient,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	ws *clients.WebSocketClient,
	m *metrics.Metrics,
	log *logrus.Logger,
) *ExportService {
	return &ExportService{
		repo:    repo,
		redis:   redis,
		storage: storage,
		s3:      s3,
		ws:      ws,
		metrics: m,
		log:     log,
	}
}

type assessmentColumn struct {
	Header string
	Value  func(a domain.Assessment) any
}

func situationCell(p *int) any {
	if p == nil {
		return ""
	}
	info := domain.DescribeSituation(*p)
	return fmt.Sprintf("%d - %s", info.Code, info.Label)
}

var assessmentColumns = []assessmentColumn{
	{"CUIT", func(a domain.Assessment) any { return a.CUIT }},
	{"Cliente", func(a domain.Assessment) any { return a.ClientName }},
	{"Estado", func(a domain.Assessment) any { return string(a.Status) }},
	{"Situación actual", func(a domain.Assessment) any { return situationCell(a.CurrentSituation) }},
	{"Peor situación 6 meses", func(a domain.Assessment) any { return situationCell(a.Worst6Months) }},
	{"Peor situación 12 meses", func(a domain.Assessment) any { return situationCell(a.Worst12Months) }},
	{"Motivos", func(a domain.Assessment) any { return strings.Join(a.Reasons, "; ") }},
	{"Fecha", func(a domain.Assessment) any { return a.CreatedAt.Format("2006-01-02 15:04:05") }},
}

func (s *ExportService) saveExportStatus(ctx context.Context, st *ExportStatus) error {
	if s.redis == nil {
		return nil
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}

	return s.redis.SAdd(ctx, exportSetKey, st.Key)
}

// StartAssessmentsExport registers the export and generates the report in the
// background. Returns the export key the advisor polls (or watches over the
// websocket) for progress.
func (s *ExportService) StartAssessmentsExport(ctx context.Context, filter repository.AssessmentsFilter, userID int64) (string, error) {
	exportID := fmt.Sprintf("exports:%s", uuid.NewString())
	now := time.Now()

	status := &ExportStatus{
		Key:      exportID,
		Type:     "assessments",
		UserID:   userID,
		Filters:  filtersMap(filter),
		Progress: 0,
		FileURL:  nil,
		Created:  now,
	}

	if err := s.saveExportStatus(ctx, status); err != nil {
		s.log.WithError(err).Warn("failed to save initial export status")
	}
	s.metrics.IncrementExports()

	go s.runAssessmentsExport(context.Background(), exportID, filter, userID, now)

	return exportID, nil
}

func (s *ExportService) runAssessmentsExport(ctx context.Context, exportID string, filter repository.AssessmentsFilter, userID int64, createdAt time.Time) {
	status := &ExportStatus{
		Key:     exportID,
		Type:    "assessments",
		UserID:  userID,
		Filters: filtersMap(filter),
		Created: createdAt,
	}

	fail := func(err error) {
		s.log.WithError(err).WithField("export", exportID).Error("assessments export failed")
		_ = s.ws.NotifyExportFailed(ctx, userID, exportID, "no se pudo generar el reporte")
	}

	assessments, err := s.repo.List(ctx, filter)
	if err != nil {
		fail(err)
		return
	}

	f := excelize.NewFile()
	sheet := "Evaluaciones"
	f.SetSheetName(f.GetSheetName(0), sheet)

	_ = f.SetDocProps(&excelize.DocProperties{
		Creator: fmt.Sprintf("user_%d", userID),
	})

	for i, col := range assessmentColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}

	total := len(assessments)
	for i, a := range assessments {
		for colIdx, col := range assessmentColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			_ = f.SetCellValue(sheet, cell, col.Value(a))
		}

		if (i+1)%100 == 0 || i == total-1 {
			progress := math.Round(float64(i+1) / float64(total) * 100.0)
			// 100% is reserved for when the file URL is ready
			if progress >= 100 {
				progress = 95
			}
			status.Progress = progress
			_ = s.saveExportStatus(ctx, status)
			_ = s.ws.NotifyExportProgress(ctx, userID, exportID, progress, "generating")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail(err)
		return
	}

	fileName := fmt.Sprintf("evaluaciones_%s.xlsx", time.Now().Format("20060102_150405"))

	var url string
	if s.s3 != nil {
		key, err := s.s3.UploadXLSX(ctx, fileName, buf.Bytes())
		if err == nil {
			if presigned, err := s.s3.GetTemporaryURL(ctx, key, 48*time.Hour); err == nil {
				url = presigned
			}
		} else {
			s.log.WithError(err).Warn("s3 upload failed, falling back to local storage")
		}
	}
	if url == "" {
		saved, err := s.storage.Save(ctx, fileName, buf.Bytes())
		if err != nil {
			fail(err)
			return
		}
		url = s.storage.GetURL(saved)
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveExportStatus(ctx, status)
	_ = s.ws.NotifyExportProgress(ctx, userID, exportID, 100, "ready")
	_ = s.ws.NotifyExportComplete(ctx, userID, exportID, url, fileName)
}

// GetExports lists the advisor's recent exports, newest first.
func (s *ExportService) GetExports(ctx context.Context, userID int64) ([]interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}

		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}

		if status.UserID == userID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	var exports []interface{}
	for _, status := range statuses {
		exports = append(exports, exportMap(status))
	}
	return exports, nil
}

// GetExport returns one export status owned by the advisor.
func (s *ExportService) GetExport(ctx context.Context, exportID string, userID int64) (interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return nil, errors.New("export not found")
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}

	if status.UserID != userID {
		return nil, errors.New("export not found")
	}

	return exportMap(status), nil
}

func exportMap(status ExportStatus) map[string]interface{} {
	return map[string]interface{}{
		"key":        status.Key,
		"type":       status.Type,
		"user_id":    status.UserID,
		"progress":   status.Progress,
		"file_url":   status.FileURL,
		"filters":    status.Filters,
		"created_at": humanizeAgo(status.Created),
	}
}

func filtersMap(f repository.AssessmentsFilter) map[string]interface{} {
	m := map[string]interface{}{
		"cuit":    nil,
		"status":  nil,
		"user_id": nil,
	}
	if f.CUIT != nil {
		m["cuit"] = *f.CUIT
	}
	if f.Status != nil {
		m["status"] = *f.Status
	}
	if f.UserID != nil {
		m["user_id"] = *f.UserID
	}
	return m
}

// humanizeAgo renders a relative timestamp for the advisor UI.
func humanizeAgo(t time.Time) string {
	now := time.Now()
	if t.After(now) {
		return "recién"
	}

	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	if minutes < 1 {
		return "recién"
	}
	if minutes < 60 {
		return fmt.Sprintf("hace %d %s", minutes, esPlural(minutes, "minuto", "minutos"))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("hace %d %s", hours, esPlural(hours, "hora", "horas"))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("hace %d %s", days, esPlural(days, "día", "días"))
	}
	return t.Format("02/01/2006 15:04")
}

func esPlural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
