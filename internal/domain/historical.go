package domain

// HistoricalRecord is the trailing 24-month debt history reported by the
// bureau, fetched independently from the current snapshot. Each period is a
// reduced-fidelity view: no arrears day count, fewer flags.
type HistoricalRecord struct {
	CUIT    string             `json:"cuit"`
	Name    string             `json:"name"`
	Periods []HistoricalPeriod `json:"periods"`
}

type HistoricalPeriod struct {
	Label    string             `json:"period"`
	Entities []HistoricalEntity `json:"entities"`
}

type HistoricalEntity struct {
	Name            string  `json:"entity"`
	Situation       int     `json:"situation"`
	Amount          float64 `json:"amount"` // thousands of pesos
	UnderReview     bool    `json:"under_review"`
	JudicialProcess bool    `json:"judicial_process"`
}
