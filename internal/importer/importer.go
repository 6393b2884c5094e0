// Package importer loads sales ledgers and supplier order files into the
// matching pipeline's input types. CSV and XLSX exports carry sale line
// items; supplier files fetched over FTP carry purchase candidates.
package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// timestampLayouts are tried in order. Ledger exports are inconsistent
// about precision, so date-only rows are accepted and pinned to midnight UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a ledger timestamp. Unparseable values are an error,
// never silently zeroed, because the engine's causality filter depends on
// every timestamp being real.
func ParseTimestamp(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, eris.New("importer: empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("importer: unparseable timestamp %q", value)
}

func parsePrice(value string) (float64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, nil
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, eris.Errorf("importer: unparseable price %q", value)
	}
	return f, nil
}

// header maps normalized column names to their index.
type header map[string]int

func newHeader(cells []string) header {
	h := make(header, len(cells))
	for i, c := range cells {
		h[normalizeColumn(c)] = i
	}
	return h
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

// get returns the cell for the first matching column alias, or "".
func (h header) get(row []string, aliases ...string) string {
	for _, a := range aliases {
		if idx, ok := h[a]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
	}
	return ""
}

func (h header) require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := h[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("importer: missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
