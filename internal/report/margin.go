// Package report aggregates committed matches into per-currency margin
// summaries for the back office.
package report

import (
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// CurrencySummary aggregates revenue and cost for one sale currency.
// Matches without a purchase cost count toward revenue but are tracked as
// unpriced and excluded from margin.
type CurrencySummary struct {
	Currency      string  `json:"currency"`
	Matches       int     `json:"matches"`
	Unpriced      int     `json:"unpriced"`
	Revenue       float64 `json:"revenue"`
	Cost          float64 `json:"cost"`
	Margin        float64 `json:"margin"`
	MarginPercent float64 `json:"margin_percent"`
}

// MarginReport is the full margin breakdown across currencies.
type MarginReport struct {
	Currencies []CurrencySummary `json:"currencies"`
	Matches    int               `json:"matches"`
}

// Build aggregates committed matches into a margin report. Currencies are
// sorted alphabetically so output is stable across runs.
func Build(matches []model.CommittedMatch) MarginReport {
	byCurrency := make(map[string]*CurrencySummary)
	for _, m := range matches {
		currency := m.Currency
		if currency == "" {
			currency = "UNKNOWN"
		}

		s, ok := byCurrency[currency]
		if !ok {
			s = &CurrencySummary{Currency: currency}
			byCurrency[currency] = s
		}

		s.Matches++
		s.Revenue += m.SalePrice
		if m.PurchaseCost == nil {
			s.Unpriced++
			continue
		}
		s.Cost += *m.PurchaseCost
	}

	report := MarginReport{Matches: len(matches)}
	for _, s := range byCurrency {
		s.Margin = s.Revenue - s.Cost
		if s.Revenue > 0 {
			s.MarginPercent = s.Margin / s.Revenue * 100
		}
		report.Currencies = append(report.Currencies, *s)
	}
	sort.Slice(report.Currencies, func(i, j int) bool {
		return report.Currencies[i].Currency < report.Currencies[j].Currency
	})
	return report
}

// Render writes the report as a locale-formatted table. locale may be a
// BCP 47 tag like "en" or "de"; empty defaults to English.
func (r MarginReport) Render(w io.Writer, locale string) error {
	tag := language.English
	if locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return eris.Wrapf(err, "report: parse locale %q", locale)
		}
		tag = parsed
	}

	p := message.NewPrinter(tag)
	if _, err := p.Fprintf(w, "%-10s %8s %8s %14s %14s %14s %8s\n",
		"CURRENCY", "MATCHES", "UNPRICED", "REVENUE", "COST", "MARGIN", "MARGIN%"); err != nil {
		return eris.Wrap(err, "report: write header")
	}

	for _, s := range r.Currencies {
		_, err := p.Fprintf(w, "%-10s %8d %8d %14.2f %14.2f %14.2f %7.1f%%\n",
			s.Currency, s.Matches, s.Unpriced, s.Revenue, s.Cost, s.Margin, s.MarginPercent)
		if err != nil {
			return eris.Wrap(err, "report: write row")
		}
	}

	if _, err := p.Fprintf(w, "\n%d committed matches\n", r.Matches); err != nil {
		return eris.Wrap(err, "report: write footer")
	}
	return nil
}
