package services

import (
	"math"
	"testing"
	"time"

	"event-builder/internal/status"
	"event-builder/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		tax      models.TaxConfig
		expected string
	}{
		{
			"Percentage tax and fee",
			"100",
			models.TaxConfig{TaxType: models.AmountPercentage, TaxValue: dec("18"), FeeType: models.AmountPercentage, FeeValue: dec("6")},
			"124",
		},
		{
			"Fixed tax and fee",
			"100",
			models.TaxConfig{TaxType: models.AmountFixed, TaxValue: dec("5"), FeeType: models.AmountFixed, FeeValue: dec("2.5")},
			"107.5",
		},
		{
			"Mixed",
			"40",
			models.TaxConfig{TaxType: models.AmountPercentage, TaxValue: dec("10"), FeeType: models.AmountFixed, FeeValue: dec("1")},
			"45",
		},
		{
			"No tax",
			"60",
			models.TaxConfig{TaxType: models.AmountPercentage, FeeType: models.AmountPercentage},
			"60",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinalPrice(dec(tt.base), tt.tax)
			assert.True(t, dec(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestPotentialRevenue(t *testing.T) {
	phases := []models.TicketPhase{{
		Combinations: []models.PriceCombination{{BasePrice: dec("50"), Allocation: 10}},
	}}
	tax := models.TaxConfig{TaxType: models.AmountPercentage, TaxValue: dec("12"), FeeType: models.AmountPercentage, FeeValue: dec("8")}

	got := PotentialRevenue(phases, tax)

	assert.True(t, dec("600").Equal(got), "got %s", got)
}

func TestPriceRange(t *testing.T) {
	phases := []models.TicketPhase{
		{Combinations: []models.PriceCombination{{BasePrice: dec("0")}, {BasePrice: dec("35")}}},
		{Combinations: []models.PriceCombination{{BasePrice: dec("120")}, {BasePrice: dec("20.5")}}},
	}

	lo, hi := PriceRange(phases)
	assert.True(t, dec("20.5").Equal(lo))
	assert.True(t, dec("120").Equal(hi))

	lo, hi = PriceRange([]models.TicketPhase{{Combinations: []models.PriceCombination{{BasePrice: dec("0")}}}})
	assert.True(t, lo.IsZero())
	assert.True(t, hi.IsZero())
}

func TestTotalCapacity(t *testing.T) {
	assert.Equal(t, 0, TotalCapacity(nil))
	assert.Equal(t, 150, TotalCapacity([]models.TicketSector{{Capacity: 100}, {Capacity: 50}}))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"12.50", "12.5"},
		{" 7 ", "7"},
		{"", "0"},
		{"NaN", "0"},
		{"abc", "0"},
		{"-3", "-3"},
		{"0.00000001", "0.00000001"},
		{"999999999999.99", "999999999999.99"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseAmount(tt.value)
			require.NoError(t, err)
			assert.True(t, dec(tt.expected).Equal(got))
		})
	}
}

func TestParseAmount_OutOfRange(t *testing.T) {
	for _, value := range []string{
		"1e50000000",
		"-1e400000",
		"1e-50000000",
		"0.000000001",
		"1000000000000",
		"1e12",
	} {
		t.Run(value, func(t *testing.T) {
			start := time.Now()
			_, err := ParseAmount(value)
			assert.ErrorIs(t, err, status.ErrInvalidAmount)
			assert.Less(t, time.Since(start), 100*time.Millisecond)
		})
	}
}

func TestAmountFromFloat(t *testing.T) {
	assert.True(t, AmountFromFloat(math.NaN()).IsZero())
	assert.True(t, AmountFromFloat(math.Inf(1)).IsZero())
	assert.True(t, dec("2.25").Equal(AmountFromFloat(2.25)))
}

func TestSummarize(t *testing.T) {
	b := validBuilder(t)
	_, err := b.SetTaxConfig(TaxInput{TaxType: models.AmountPercentage, TaxValue: "20", FeeType: models.AmountFixed, FeeValue: "0"})
	assert.NoError(t, err)

	s := b.Summary()

	assert.Equal(t, 100, s.TotalCapacity)
	assert.Equal(t, 10, s.TotalAllocation)
	assert.True(t, dec("50").Equal(s.MinPrice))
	assert.True(t, dec("50").Equal(s.MaxPrice))
	assert.True(t, dec("600").Equal(s.PotentialRevenue))
}
