package domain

// DebtRecord is the current-debt snapshot reported by the bureau for one
// taxpayer: one Period per calendar month, each listing every financial
// institution that reported debt for that month. Immutable once fetched.
type DebtRecord struct {
	CUIT    string   `json:"cuit"`
	Name    string   `json:"name"`
	Periods []Period `json:"periods"`
}

type Period struct {
	// Label is the calendar month in YYYYMM form, zero-padded.
	Label    string   `json:"period"`
	Entities []Entity `json:"entities"`
}

// Entity is one reporting institution's view of the debtor for a month.
// The boolean flags are carried through for display only; the eligibility
// algorithm consumes just the situation code.
type Entity struct {
	Name          string  `json:"entity"`
	Situation     int     `json:"situation"`
	Amount        float64 `json:"amount"` // reported in thousands of pesos
	DaysInArrears int     `json:"days_in_arrears"`

	Refinanced                bool `json:"refinanced"`
	MandatoryRecategorization bool `json:"mandatory_recategorization"`
	JudicialSituation         bool `json:"judicial_situation"`
	TechnicallyIrrecoverable  bool `json:"technically_irrecoverable"`
	UnderReview               bool `json:"under_review"`
	JudicialProcess           bool `json:"judicial_process"`
}
