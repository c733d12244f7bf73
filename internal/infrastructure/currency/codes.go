// Package currency provides exchange-rate sources for normalizing asset values.
package currency

import (
	"github.com/slimatic/zakapp-sub001/internal/domain/shared/valueobject"
)

// pair validates and canonicalizes both ISO 4217 codes
func pair(from, to string) (string, string, error) {
	f, err := valueobject.ParseCurrency(from)
	if err != nil {
		return "", "", err
	}
	t, err := valueobject.ParseCurrency(to)
	if err != nil {
		return "", "", err
	}
	return f.String(), t.String(), nil
}
