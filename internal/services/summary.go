package services

import (
	"math"
	"strings"

	"event-builder/internal/status"
	"event-builder/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summary holds the figures shown next to the pricing grid.
type Summary struct {
	TotalCapacity    int             `json:"total_capacity"`
	TotalAllocation  int             `json:"total_allocation"`
	MinPrice         decimal.Decimal `json:"min_price"`
	MaxPrice         decimal.Decimal `json:"max_price"`
	PotentialRevenue decimal.Decimal `json:"potential_revenue"`
}

const (
	maxAmountScale  = 8
	maxAmountDigits = 12
)

// ParseAmount reads a user-entered amount. Blank, NaN, infinite and
// unparseable input all read as zero. Amounts with more than 8 decimal
// places or 12 integer digits return status.ErrInvalidAmount.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, nil
	}
	// checked before any arithmetic: a large exponent makes every later
	// operation on d arbitrarily expensive
	exp := int64(d.Exponent())
	if exp < -maxAmountScale || int64(d.NumDigits())+exp > maxAmountDigits {
		return decimal.Zero, status.ErrInvalidAmount
	}
	return d, nil
}

// AmountFromFloat converts a JSON number, mapping NaN and infinities to zero.
func AmountFromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func TotalCapacity(sectors []models.TicketSector) int {
	total := 0
	for _, s := range sectors {
		total += s.Capacity
	}
	return total
}

func surcharge(base decimal.Decimal, t models.AmountType, value decimal.Decimal) decimal.Decimal {
	if t == models.AmountPercentage {
		return base.Mul(value).Div(hundred)
	}
	return value
}

// FinalPrice adds tax and service fee to a base price. Percentages apply to
// the base price; fixed amounts are added as-is.
func FinalPrice(base decimal.Decimal, tax models.TaxConfig) decimal.Decimal {
	return base.
		Add(surcharge(base, tax.TaxType, tax.TaxValue)).
		Add(surcharge(base, tax.FeeType, tax.FeeValue))
}

func PotentialRevenue(phases []models.TicketPhase, tax models.TaxConfig) decimal.Decimal {
	total := decimal.Zero
	for _, ph := range phases {
		for _, c := range ph.Combinations {
			total = total.Add(FinalPrice(c.BasePrice, tax).Mul(decimal.NewFromInt(int64(c.Allocation))))
		}
	}
	return total
}

// PriceRange returns the lowest and highest positive base price across all
// phases, or zeros when there is none.
func PriceRange(phases []models.TicketPhase) (decimal.Decimal, decimal.Decimal) {
	var lo, hi decimal.Decimal
	found := false
	for _, ph := range phases {
		for _, c := range ph.Combinations {
			if !c.BasePrice.IsPositive() {
				continue
			}
			if !found {
				lo, hi, found = c.BasePrice, c.BasePrice, true
				continue
			}
			if c.BasePrice.LessThan(lo) {
				lo = c.BasePrice
			}
			if c.BasePrice.GreaterThan(hi) {
				hi = c.BasePrice
			}
		}
	}
	if !found {
		return decimal.Zero, decimal.Zero
	}
	return lo, hi
}

func Summarize(draft *models.EventDraft) Summary {
	lo, hi := PriceRange(draft.TicketPhases)
	allocation := 0
	for _, ph := range draft.TicketPhases {
		for _, c := range ph.Combinations {
			allocation += c.Allocation
		}
	}
	return Summary{
		TotalCapacity:    TotalCapacity(draft.TicketSectors),
		TotalAllocation:  allocation,
		MinPrice:         lo,
		MaxPrice:         hi,
		PotentialRevenue: PotentialRevenue(draft.TicketPhases, draft.TaxConfig),
	}
}
