package importer

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// ParseSalesXLSX reads the first sheet of a sales ledger workbook. The
// first row must be a header; rows follow the same column aliases as the
// CSV importer.
func ParseSalesXLSX(path string) ([]model.SaleLineItem, error) {
	rows, h, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	if err := h.require("order_id", "created_at", "title"); err != nil {
		return nil, err
	}

	var items []model.SaleLineItem
	for i, row := range rows {
		createdAt, err := ParseTimestamp(h.get(row, "created_at", "sold_at", "date"))
		if err != nil {
			return nil, eris.Wrapf(err, "importer: sales row %d", i+2)
		}
		price, err := parsePrice(h.get(row, "total_price", "price", "amount"))
		if err != nil {
			return nil, eris.Wrapf(err, "importer: sales row %d", i+2)
		}

		items = append(items, model.SaleLineItem{
			OrderID:    h.get(row, "order_id"),
			OrderName:  h.get(row, "order_name", "order"),
			CreatedAt:  createdAt,
			Title:      h.get(row, "title", "product", "product_name"),
			SKU:        h.get(row, "sku", "style_id"),
			Size:       h.get(row, "size", "variant"),
			Currency:   h.get(row, "currency"),
			TotalPrice: price,
		})
	}
	return items, nil
}

func readSheet(path string) ([][]string, header, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "importer: open workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("importer: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil, eris.New("importer: empty sheet")
	}

	h := newHeader(rowToStrings(sheet.Rows[0]))
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if allEmpty(cells) {
			continue
		}
		rows = append(rows, cells)
	}
	return rows, h, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
