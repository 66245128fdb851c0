package service

import (
	"fmt"
	"sort"
	"time"

	"aptocheck/internal/domain"
)

// Eligibility thresholds: the most recent month and the trailing 6 months
// must be fully normal (situation 1); the trailing 12 months tolerate up to
// a low-risk rating (situation 2).
const (
	maxCurrentSituation      = 1
	maxSixMonthsSituation    = 1
	maxTwelveMonthsSituation = 2
)

// Analyze maps the fetched bureau records to an eligibility verdict. It is
// pure: no I/O, inputs are never mutated, and the same inputs with the same
// now always produce the same verdict. Either record may be nil (a failed
// fetch degrades the analysis instead of aborting it); the analyzer answers
// PENDING when the historical record is missing or empty, since the decision
// rules are defined over the history.
func Analyze(current *domain.DebtRecord, historical *domain.HistoricalRecord, now time.Time) domain.EligibilityVerdict {
	verdict := domain.EligibilityVerdict{
		Status:     domain.StatusPending,
		AnalyzedAt: now,
	}

	if current == nil && historical == nil {
		verdict.Reasons = []string{"sin datos de la central de deudores"}
		return verdict
	}
	if historical == nil {
		verdict.Reasons = []string{"sin historial de deudas para completar el análisis"}
		return verdict
	}

	periods := make([]domain.HistoricalPeriod, len(historical.Periods))
	copy(periods, historical.Periods)
	// YYYYMM labels are fixed-width, so lexicographic order is chronological.
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].Label > periods[j].Label
	})

	if len(periods) == 0 {
		verdict.Reasons = []string{"el historial no contiene períodos"}
		return verdict
	}

	var reasons []string

	cur := worstSituation(periods[0].Entities)
	verdict.CurrentSituation = &cur
	if cur > maxCurrentSituation {
		reasons = append(reasons, fmt.Sprintf(
			"situación actual %d supera el máximo permitido (%d)", cur, maxCurrentSituation))
	}

	if worst, ok := worstWithinMonths(periods, now, 6); ok {
		verdict.Worst6Months = &worst
		if worst > maxSixMonthsSituation {
			reasons = append(reasons, fmt.Sprintf(
				"peor situación en los últimos 6 meses %d supera el máximo permitido (%d)",
				worst, maxSixMonthsSituation))
		}
	}

	if worst, ok := worstWithinMonths(periods, now, 12); ok {
		verdict.Worst12Months = &worst
		if worst > maxTwelveMonthsSituation {
			reasons = append(reasons, fmt.Sprintf(
				"peor situación en los últimos 12 meses %d supera el máximo permitido (%d)",
				worst, maxTwelveMonthsSituation))
		}
	}

	verdict.Reasons = reasons
	verdict.Eligible = len(reasons) == 0
	if verdict.Eligible {
		verdict.Status = domain.StatusApto
	} else {
		verdict.Status = domain.StatusNoApto
	}
	return verdict
}

// worstSituation is the maximum situation code across a period's entities.
// A month with no reported debt is a normal month, not missing data.
func worstSituation(entities []domain.HistoricalEntity) int {
	worst := 1
	for _, e := range entities {
		if e.Situation > worst {
			worst = e.Situation
		}
	}
	return worst
}

// worstWithinMonths computes the worst situation across the periods whose
// first-of-month date falls on or after now's month minus the window. The
// boundary month is included. Returns ok=false when no period qualifies.
func worstWithinMonths(periods []domain.HistoricalPeriod, now time.Time, months int) (int, bool) {
	cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -months, 0)

	worst := 0
	found := false
	for _, p := range periods {
		date, err := time.Parse("200601", p.Label)
		if err != nil {
			// labels are validated at the bureau-client boundary
			continue
		}
		if date.Before(cutoff) {
			continue
		}
		found = true
		if w := worstSituation(p.Entities); w > worst {
			worst = w
		}
	}
	return worst, found
}
