package domain

import (
	"errors"
	"strings"
)

// cuitLength is the fixed number of digits of an Argentine CUIT.
const cuitLength = 11

var ErrInvalidCUIT = errors.New("el CUIT debe contener exactamente 11 dígitos")

// NormalizeCUIT strips every non-digit character (dashes, dots, spaces) from
// raw and returns the bare 11-digit identifier used to key bureau calls.
func NormalizeCUIT(raw string) (string, error) {
	var b strings.Builder
	b.Grow(cuitLength)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() != cuitLength {
		return "", ErrInvalidCUIT
	}
	return b.String(), nil
}
