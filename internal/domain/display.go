package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SituationInfo is the presentation mapping for a bureau situation code.
type SituationInfo struct {
	Code        int    `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

var situationTable = map[int]SituationInfo{
	1: {1, "Normal", "Situación normal", "green"},
	2: {2, "Riesgo bajo", "Con seguimiento especial / riesgo bajo", "yellow"},
	3: {3, "Riesgo medio", "Con problemas / riesgo medio", "orange"},
	4: {4, "Riesgo alto", "Con alto riesgo de insolvencia / riesgo alto", "red"},
	5: {5, "Irrecuperable", "Irrecuperable", "red"},
	6: {6, "Irrecuperable DT", "Irrecuperable por disposición técnica", "red"},
}

// DescribeSituation maps a situation code to its display info. Codes above
// the known range fall back to the worst known description.
func DescribeSituation(code int) SituationInfo {
	if info, ok := situationTable[code]; ok {
		return info
	}
	if code > 6 {
		info := situationTable[6]
		info.Code = code
		return info
	}
	return SituationInfo{Code: code, Label: "Desconocida", Description: "Situación desconocida", Color: "gray"}
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatPeriodLabel renders a YYYYMM label as "enero 2024". Labels that do
// not parse are returned unchanged.
func FormatPeriodLabel(label string) string {
	if len(label) != 6 {
		return label
	}
	month, err := strconv.Atoi(label[4:])
	if err != nil || month < 1 || month > 12 {
		return label
	}
	return spanishMonths[month-1] + " " + label[:4]
}

// FormatAmount renders a bureau amount as Argentine pesos. The bureau reports
// amounts in thousands, so the value is scaled by 1000 first.
func FormatAmount(thousands float64) string {
	pesos := thousands * 1000

	negative := pesos < 0
	if negative {
		pesos = -pesos
	}

	whole := int64(pesos)
	cents := int64((pesos-float64(whole))*100 + 0.5)
	if cents == 100 {
		whole++
		cents = 0
	}

	digits := strconv.FormatInt(whole, 10)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	out := fmt.Sprintf("$ %s,%02d", strings.Join(groups, "."), cents)
	if negative {
		return "-" + out
	}
	return out
}
