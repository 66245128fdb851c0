package domain

import "time"

// Assessment is a persisted pre-qualification run: the verdict plus the
// identifiers needed to show it back to the advisor who requested it.
type Assessment struct {
	ID               string            `json:"id"`
	CUIT             string            `json:"cuit"`
	ClientName       string            `json:"client_name"`
	Status           EligibilityStatus `json:"status"`
	Eligible         bool              `json:"eligible"`
	CurrentSituation *int              `json:"current_situation"`
	Worst6Months     *int              `json:"worst_6_months"`
	Worst12Months    *int              `json:"worst_12_months"`
	Reasons          []string          `json:"reasons"`
	UserID           int64             `json:"user_id"`
	CreatedAt        time.Time         `json:"created_at"`
}
