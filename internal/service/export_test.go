package service

import (
	"strings"
	"testing"
	"time"

	"aptocheck/internal/domain"
)

func TestSituationCell(t *testing.T) {
	if got := situationCell(nil); got != "" {
		t.Fatalf("expected empty cell for nil situation, got %v", got)
	}

	three := 3
	if got := situationCell(&three); got != "3 - Riesgo medio" {
		t.Fatalf("unexpected cell: %v", got)
	}
}

func TestAssessmentColumns(t *testing.T) {
	cur := 1
	w6 := 3
	a := domain.Assessment{
		CUIT:             "20123456789",
		ClientName:       "PEREZ JUAN",
		Status:           domain.StatusNoApto,
		CurrentSituation: &cur,
		Worst6Months:     &w6,
		Reasons:          []string{"motivo uno", "motivo dos"},
		CreatedAt:        time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC),
	}

	values := make(map[string]string)
	for _, col := range assessmentColumns {
		values[col.Header] = strings.TrimSpace(toString(col.Value(a)))
	}

	if values["CUIT"] != "20123456789" {
		t.Errorf("unexpected CUIT cell: %q", values["CUIT"])
	}
	if values["Estado"] != "NO_APTO" {
		t.Errorf("unexpected Estado cell: %q", values["Estado"])
	}
	if values["Motivos"] != "motivo uno; motivo dos" {
		t.Errorf("unexpected Motivos cell: %q", values["Motivos"])
	}
	if values["Peor situación 12 meses"] != "" {
		t.Errorf("missing field must render empty, got %q", values["Peor situación 12 meses"])
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func TestHumanizeAgo(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now, "recién"},
		{"minutes", now.Add(-5 * time.Minute), "hace 5 minutos"},
		{"one hour", now.Add(-1 * time.Hour), "hace 1 hora"},
		{"days", now.Add(-3 * 24 * time.Hour), "hace 3 días"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := humanizeAgo(tc.t); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}

	// beyond a month it falls back to an absolute timestamp
	old := now.Add(-40 * 24 * time.Hour)
	if got := humanizeAgo(old); !strings.Contains(got, "/") {
		t.Fatalf("expected absolute date, got %q", got)
	}
}
