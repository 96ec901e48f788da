package models

import "github.com/shopspring/decimal"

type AmountType string

const (
	AmountPercentage AmountType = "PERCENTAGE"
	AmountFixed      AmountType = "FIXED"
)

func (t AmountType) Valid() bool {
	return t == AmountPercentage || t == AmountFixed
}

// TaxConfig applies to every price of the draft.
type TaxConfig struct {
	TaxType  AmountType      `json:"tax_type"`
	TaxValue decimal.Decimal `json:"tax_value"`
	FeeType  AmountType      `json:"fee_type"`
	FeeValue decimal.Decimal `json:"fee_value"`
}

type Discount struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Type         AmountType      `json:"type"`
	Value        decimal.Decimal `json:"value"`
	LimitPerUser int             `json:"limit_per_user"`
	IsActive     bool            `json:"is_active"`
}

// PriceMatrix maps sector -> profile -> ticket type -> base price.
type PriceMatrix map[string]map[string]map[string]decimal.Decimal

// Get returns the stored price of a triple and whether it exists.
func (m PriceMatrix) Get(sectorID, profileID, ticketTypeID string) (decimal.Decimal, bool) {
	v, ok := m[sectorID][profileID][ticketTypeID]
	return v, ok
}

// Set stores a price, creating the intermediate levels as needed.
func (m PriceMatrix) Set(sectorID, profileID, ticketTypeID string, price decimal.Decimal) {
	if m[sectorID] == nil {
		m[sectorID] = make(map[string]map[string]decimal.Decimal)
	}
	if m[sectorID][profileID] == nil {
		m[sectorID][profileID] = make(map[string]decimal.Decimal)
	}
	m[sectorID][profileID][ticketTypeID] = price
}
