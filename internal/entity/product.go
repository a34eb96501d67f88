package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryCars        Category = "cars"
	CategoryMotorcycles Category = "motorcycles"
	CategoryElectronics Category = "electronics"
)

var ErrUnknownCategory = errors.New("unknown category")

// ParseCategory accepts the empty string as "any category".
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CategoryCars, CategoryMotorcycles, CategoryElectronics:
		return c, nil
	default:
		return "", ErrUnknownCategory
	}
}

type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Category       Category          `json:"category"`
	RetailPrice    decimal.Decimal   `json:"retailPrice"`
	WholesalePrice decimal.Decimal   `json:"wholesalePrice"`
	ImageURL       string            `json:"imageUrl,omitempty"`
	Description    string            `json:"description,omitempty"`
	Specs          map[string]string `json:"specs,omitempty"`
}

// PriceFor selects the unit price for the caller's tier. Products without a
// wholesale price fall back to retail.
func (p Product) PriceFor(wholesale bool) decimal.Decimal {
	if wholesale && p.WholesalePrice.IsPositive() {
		return p.WholesalePrice
	}
	return p.RetailPrice
}
