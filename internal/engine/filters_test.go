package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resale-group/backoffice-cli/internal/model"
)

var saleAt = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func testItem() model.SaleLineItem {
	return model.SaleLineItem{
		OrderID:    "1001",
		OrderName:  "#1001",
		CreatedAt:  saleAt,
		Title:      "Sneaker X - EU 42",
		SKU:        "ABC12345-42",
		Size:       "EU 42",
		Currency:   "EUR",
		TotalPrice: 180,
	}
}

func testCandidate(orderNumber string, purchasedAt time.Time) model.PurchaseCandidate {
	return model.PurchaseCandidate{
		ChainID:     "c-" + orderNumber,
		OrderID:     "o-" + orderNumber,
		OrderNumber: orderNumber,
		PurchasedAt: purchasedAt,
		Title:       "Sneaker X",
		SKUKey:      "ABC12345",
		Size:        "EU 42",
		Status:      model.PurchaseStatusOrdered,
	}
}

func TestNameSimilarity(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		name     string
		sale     string
		purchase string
		want     float64
	}{
		{"exact after size strip", "Sneaker X - EU 42", "Sneaker X", 1.0},
		{"exact after stopwords", "Sneaker X Limited Edition", "Sneaker X", 1.0},
		{"half overlap", "Alpha Bravo Charlie", "Alpha Bravo Delta", 0.5},
		{"no overlap", "Alpha Bravo", "Charlie Delta", 0.0},
		{"numeric tokens ignored", "Runner 95 Mid", "Runner 97 Mid", 1.0},
		{"toy brand containment", "Bearbrick Peanuts 400%", "Bearbrick Peanuts 400% Set", 1.0},
		{"toy brand different series", "Bearbrick Peanuts 400%", "Bearbrick Astro 1000%", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.nameSimilarity(tt.sale, tt.purchase)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestRunFilters_AllPass(t *testing.T) {
	e := New(DefaultConfig())

	out := e.runFilters(testItem(), testCandidate("P1", saleAt.Add(30*time.Minute)))

	require.True(t, out.passed)
	assert.False(t, out.rescued)
	assert.True(t, out.skuExact)
	assert.InDelta(t, 0.5, out.elapsedHours, 0.001)
}

func TestRunFilters_SizeMismatchRejects(t *testing.T) {
	e := New(DefaultConfig())

	cand := testCandidate("P1", saleAt.Add(30*time.Minute))
	cand.Size = "EU 43"

	out := e.runFilters(testItem(), cand)

	require.False(t, out.passed)
	require.NotNil(t, out.rejection)
	assert.Equal(t, model.ReasonSizeMismatch, out.rejection.Code)
}

func TestRunFilters_SizeRules(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		name     string
		saleSize string
		candSize string
		pass     bool
	}{
		{"both empty", "", "", true},
		{"sale empty cand one size", "", "One Size", true},
		{"cand empty sale one size", "O/S", "", true},
		{"equal after normalization", "EU 42", "42", true},
		{"empty vs concrete", "", "EU 42", false},
		{"concrete vs empty", "EU 42", "", false},
		{"mismatch", "EU 42", "EU 43", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := testItem()
			item.Size = tt.saleSize
			cand := testCandidate("P1", saleAt.Add(time.Hour))
			cand.Size = tt.candSize

			out := e.runFilters(item, cand)
			assert.Equal(t, tt.pass, out.passed)
		})
	}
}

func TestRunFilters_SizeSkippedForToyBrand(t *testing.T) {
	e := New(DefaultConfig())

	item := testItem()
	item.Title = "Bearbrick Peanuts 400%"
	item.Size = ""
	cand := testCandidate("P1", saleAt.Add(time.Hour))
	cand.Title = "Bearbrick Peanuts 400%"
	cand.Size = "400%"

	out := e.runFilters(item, cand)
	require.True(t, out.passed)

	codes := reasonCodes(out.reasons)
	assert.Contains(t, codes, model.ReasonSizeSkipped)
}

func TestRunFilters_CausalityRejects(t *testing.T) {
	e := New(DefaultConfig())

	// Nine minutes before the sale: outside the 5-minute tolerance even with
	// a perfect name and size match.
	out := e.runFilters(testItem(), testCandidate("P1", saleAt.Add(-9*time.Minute)))

	require.False(t, out.passed)
	require.NotNil(t, out.rejection)
	assert.Equal(t, model.ReasonCausality, out.rejection.Code)
}

func TestRunFilters_CausalityToleratesClockSkew(t *testing.T) {
	e := New(DefaultConfig())

	out := e.runFilters(testItem(), testCandidate("P1", saleAt.Add(-4*time.Minute)))
	assert.True(t, out.passed)
}

func TestRunFilters_SKUOverrideRescue(t *testing.T) {
	e := New(DefaultConfig())

	item := testItem()
	item.Title = "Alpha Runner Low White"
	item.SKU = "ABC12345-L"
	item.Size = "L"

	cand := testCandidate("P1", saleAt.Add(10*time.Hour))
	cand.Title = "Alpha Street Mid Black"
	cand.SKUKey = "ABC12345"
	cand.Size = "L"

	out := e.runFilters(item, cand)

	require.True(t, out.passed)
	assert.True(t, out.rescued)
	assert.True(t, out.skuExact)
	assert.Contains(t, reasonCodes(out.reasons), model.ReasonSKUOverride)
}

func TestRunFilters_NoRescueOutsideWindow(t *testing.T) {
	e := New(DefaultConfig())

	item := testItem()
	item.Title = "Alpha Runner Low White"

	cand := testCandidate("P1", saleAt.Add(100*time.Hour))
	cand.Title = "Alpha Street Mid Black"

	out := e.runFilters(item, cand)

	require.False(t, out.passed)
	assert.Equal(t, model.ReasonNameMismatch, out.rejection.Code)
}

func TestRunFilters_NoRescueWithoutSKU(t *testing.T) {
	e := New(DefaultConfig())

	item := testItem()
	item.Title = "Alpha Runner Low White"
	item.SKU = ""

	cand := testCandidate("P1", saleAt.Add(time.Hour))
	cand.Title = "Alpha Street Mid Black"

	out := e.runFilters(item, cand)
	assert.False(t, out.passed)
}

func TestSKUStrength(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		name        string
		saleSKU     string
		purchaseSKU string
		exact       bool
		partial     bool
	}{
		{"exact after base extraction", "ABC12345-L", "ABC12345", true, false},
		{"exact case insensitive", "abc12345", "ABC12345", true, false},
		{"containment at high overlap", "ABC123456789", "BC123456789", false, true},
		{"containment below overlap", "ABC1234567890", "ABC123", false, false},
		{"too short for partial", "ABC12", "ABC1", false, false},
		{"empty sale sku", "", "ABC12345", false, false},
		{"empty purchase sku", "ABC12345", "", false, false},
		{"unrelated", "ABC12345", "XYZ98765", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exact, partial := e.skuStrength(tt.saleSKU, tt.purchaseSKU)
			assert.Equal(t, tt.exact, exact, "exact")
			assert.Equal(t, tt.partial, partial, "partial")
		})
	}
}

func reasonCodes(reasons []model.Reason) []model.ReasonCode {
	codes := make([]model.ReasonCode, 0, len(reasons))
	for _, r := range reasons {
		codes = append(codes, r.Code)
	}
	return codes
}
