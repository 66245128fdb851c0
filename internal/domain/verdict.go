package domain

import "time"

type EligibilityStatus string

const (
	StatusApto    EligibilityStatus = "APTO"
	StatusNoApto  EligibilityStatus = "NO_APTO"
	StatusPending EligibilityStatus = "PENDING"
)

// EligibilityVerdict is the outcome of one eligibility analysis. It is built
// fresh on every call and never mutated afterwards; persistence is the
// caller's concern. The situation fields stay nil when the corresponding
// window had no data to evaluate.
type EligibilityVerdict struct {
	Eligible         bool              `json:"eligible"`
	Status           EligibilityStatus `json:"status"`
	CurrentSituation *int              `json:"current_situation"`
	Worst6Months     *int              `json:"worst_6_months"`
	Worst12Months    *int              `json:"worst_12_months"`
	Reasons          []string          `json:"reasons"`
	AnalyzedAt       time.Time         `json:"analyzed_at"`
}
