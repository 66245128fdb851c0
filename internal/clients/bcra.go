package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"aptocheck/internal/domain"

	"github.com/sirupsen/logrus"
)

const defaultBCRABaseURL = "https://api.bcra.gob.ar/centraldedeudores/v1.0"

type BCRAConfig struct {
	BaseURL string
	Timeout time.Duration
}

// BCRAClient consumes the Central de Deudores API of Argentina's central
// bank: one endpoint for the current-debt snapshot, one for the 24-month
// history. It performs no retries; every failure is surfaced as a
// *BureauError and the caller decides whether to retry or degrade.
type BCRAClient struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

func NewBCRAClient(cfg BCRAConfig, log *logrus.Logger) *BCRAClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBCRABaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &BCRAClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// bcraEnvelope mirrors the JSON body of every bureau response: status
// repeats the HTTP semantics inside the body, results carries the payload on
// 200, errorMessages carries diagnostics otherwise.
type bcraEnvelope struct {
	Status        int             `json:"status"`
	Results       json.RawMessage `json:"results"`
	ErrorMessages []string        `json:"errorMessages"`
}

type bcraDebtResult struct {
	Identificacion int64        `json:"identificacion"`
	Denominacion   string       `json:"denominacion"`
	Periodos       []bcraPeriod `json:"periodos"`
}

type bcraPeriod struct {
	Periodo   string       `json:"periodo"`
	Entidades []bcraEntity `json:"entidades"`
}

type bcraEntity struct {
	Entidad                 string  `json:"entidad"`
	Situacion               int     `json:"situacion"`
	Monto                   float64 `json:"monto"`
	DiasAtrasoPago          int     `json:"diasAtrasoPago"`
	Refinanciaciones        bool    `json:"refinanciaciones"`
	RecategorizacionOblig   bool    `json:"recategorizacionOblig"`
	SituacionJuridica       bool    `json:"situacionJuridica"`
	IrrecDisposicionTecnica bool    `json:"irrecDisposicionTecnica"`
	EnRevision              bool    `json:"enRevision"`
	ProcesoJud              bool    `json:"procesoJud"`
}

type bcraHistoricalResult struct {
	Identificacion int64                  `json:"identificacion"`
	Denominacion   string                 `json:"denominacion"`
	Periodos       []bcraHistoricalPeriod `json:"periodos"`
}

type bcraHistoricalPeriod struct {
	Periodo   string                 `json:"periodo"`
	Entidades []bcraHistoricalEntity `json:"entidades"`
}

type bcraHistoricalEntity struct {
	Entidad    string  `json:"entidad"`
	Situacion  int     `json:"situacion"`
	Monto      float64 `json:"monto"`
	EnRevision bool    `json:"enRevision"`
	ProcesoJud bool    `json:"procesoJud"`
}

// FetchCurrentDebt retrieves the current-debt snapshot for a taxpayer.
func (c *BCRAClient) FetchCurrentDebt(ctx context.Context, cuit string) (*domain.DebtRecord, error) {
	normalized, err := domain.NormalizeCUIT(cuit)
	if err != nil {
		return nil, newBureauError(ErrInvalidIdentifier, 0, []string{err.Error()}, err)
	}

	results, err := c.get(ctx, c.baseURL+"/Deudas/"+normalized)
	if err != nil {
		return nil, err
	}

	var result bcraDebtResult
	if err := json.Unmarshal(results, &result); err != nil {
		return nil, newBureauError(ErrUnexpectedResponse, http.StatusOK,
			[]string{"respuesta del BCRA con formato inesperado"}, err)
	}

	record := &domain.DebtRecord{
		CUIT:    normalized,
		Name:    result.Denominacion,
		Periods: make([]domain.Period, 0, len(result.Periodos)),
	}
	for _, p := range result.Periodos {
		if err := validatePeriod(p.Periodo); err != nil {
			return nil, newBureauError(ErrUnexpectedResponse, http.StatusOK, []string{err.Error()}, err)
		}
		period := domain.Period{Label: p.Periodo, Entities: make([]domain.Entity, 0, len(p.Entidades))}
		for _, e := range p.Entidades {
			if err := validateSituation(p.Periodo, e.Situacion); err != nil {
				return nil, newBureauError(ErrUnexpectedResponse, http.StatusOK, []string{err.Error()}, err)
			}
			period.Entities = append(period.Entities, domain.Entity{
				Name:                      e.Entidad,
				Situation:                 e.Situacion,
				Amount:                    e.Monto,
				DaysInArrears:             e.DiasAtrasoPago,
				Refinanced:                e.Refinanciaciones,
				MandatoryRecategorization: e.RecategorizacionOblig,
				JudicialSituation:         e.SituacionJuridica,
				TechnicallyIrrecoverable:  e.IrrecDisposicionTecnica,
				UnderReview:               e.EnRevision,
				JudicialProcess:           e.ProcesoJud,
			})
		}
		record.Periods = append(record.Periods, period)
	}

	return record, nil
}

// FetchHistoricalDebt retrieves the trailing 24-month history for a taxpayer.
func (c *BCRAClient) FetchHistoricalDebt(ctx context.Context, cuit string) (*domain.HistoricalRecord, error) {
	normalized, err := domain.NormalizeCUIT(cuit)
	if err != nil {
		return nil, newBureauError(ErrInvalidIdentifier, 0, []string{err.Error()}, err)
	}

	results, err := c.get(ctx, c.baseURL+"/Deudas/Historicas/"+normalized)
	if err != nil {
		return nil, err
	}

	var result bcraHistoricalResult
	if err := json.Unmarshal(results, &result); err != nil {
		return nil, newBureauError(ErrUnexpectedResponse, http.StatusOK,
			[]string{"respuesta del BCRA con formato inesperado"}, err)
	}

	record := &domain.HistoricalRecord{
		CUIT:    normalized,
		Name:    result.Denominacion,
		Periods: make([]domain.HistoricalPeriod, 0, len(result.Periodos)),
	}
	for _, p := range result.Periodos {
		if err := validatePeriod(p.Periodo); err != nil {
			return nil, newBureauError(ErrUnexpectedResponse, http.StatusOK, []string{err.Error()}, err)
		}
		period := domain.HistoricalPeriod{Label: p.Periodo, Entities: make([]domain.HistoricalEntity, 0, len(p.Entidades))}
		for _, e := range p.Entidades {
			if err := validateSituation(p.Periodo, e.Situacion); err != nil {
				return nil, newBureauError(ErrUnexpectedResponse, http.StatusOK, []string{err.Error()}, err)
			}
			period.Entities = append(period.Entities, domain.HistoricalEntity{
				Name:            e.Entidad,
				Situation:       e.Situacion,
				Amount:          e.Monto,
				UnderReview:     e.EnRevision,
				JudicialProcess: e.ProcesoJud,
			})
		}
		record.Periods = append(record.Periods, period)
	}

	return record, nil
}

// get performs one bureau call and maps the response envelope onto the error
// taxonomy. On success it returns the raw results payload for the caller to
// decode.
func (c *BCRAClient) get(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newBureauError(ErrNetwork, 0, nil, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("url", url).Warn("BCRA request failed")
		return nil, newBureauError(ErrNetwork, 0, nil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newBureauError(ErrNetwork, resp.StatusCode, nil, err)
	}

	var envelope bcraEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, newBureauError(ErrUnexpectedResponse, resp.StatusCode,
			[]string{"respuesta del BCRA no es JSON válido"}, err)
	}

	// The bureau repeats the HTTP status inside the body; trust the body
	// status when present, the transport status otherwise.
	status := envelope.Status
	if status == 0 {
		status = resp.StatusCode
	}

	switch status {
	case http.StatusOK:
		if len(envelope.Results) == 0 {
			return nil, newBureauError(ErrUnexpectedResponse, status,
				[]string{"respuesta 200 sin resultados"}, nil)
		}
		return envelope.Results, nil
	case http.StatusNotFound:
		return nil, newBureauError(ErrNotFound, status, envelope.ErrorMessages, nil)
	case http.StatusBadRequest:
		return nil, newBureauError(ErrInvalidIdentifier, status, envelope.ErrorMessages, nil)
	case http.StatusInternalServerError:
		return nil, newBureauError(ErrUpstreamUnavailable, status, envelope.ErrorMessages, nil)
	default:
		return nil, newBureauError(ErrUnexpectedResponse, status, envelope.ErrorMessages, nil)
	}
}

func validatePeriod(label string) error {
	if len(label) != 6 {
		return fmt.Errorf("período %q inválido: se esperaba formato AAAAMM", label)
	}
	for _, r := range label {
		if r < '0' || r > '9' {
			return fmt.Errorf("período %q inválido: se esperaba formato AAAAMM", label)
		}
	}
	month := int(label[4]-'0')*10 + int(label[5]-'0')
	if month < 1 || month > 12 {
		return fmt.Errorf("período %q inválido: mes fuera de rango", label)
	}
	return nil
}

func validateSituation(period string, situation int) error {
	if situation < 1 {
		return fmt.Errorf("situación %d inválida en período %s", situation, period)
	}
	return nil
}
