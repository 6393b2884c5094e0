package importer

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// ParseSalesCSV reads a sales ledger export and returns one SaleLineItem
// per row, in file order. The first row must be a header.
func ParseSalesCSV(ctx context.Context, r io.Reader) ([]model.SaleLineItem, error) {
	var items []model.SaleLineItem
	err := eachRow(ctx, r, func(h header, row []string, line int) error {
		if err := h.require("order_id", "created_at", "title"); err != nil {
			return err
		}

		createdAt, err := ParseTimestamp(h.get(row, "created_at", "sold_at", "date"))
		if err != nil {
			return eris.Wrapf(err, "importer: sales row %d", line)
		}
		price, err := parsePrice(h.get(row, "total_price", "price", "amount"))
		if err != nil {
			return eris.Wrapf(err, "importer: sales row %d", line)
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
		return nil
	})
	return items, err
}

// ParsePurchasesCSV reads a supplier order file and returns one
// PurchaseCandidate per row, in file order.
func ParsePurchasesCSV(ctx context.Context, r io.Reader) ([]model.PurchaseCandidate, error) {
	var candidates []model.PurchaseCandidate
	err := eachRow(ctx, r, func(h header, row []string, line int) error {
		if err := h.require("order_number", "purchased_at", "title"); err != nil {
			return err
		}

		purchasedAt, err := ParseTimestamp(h.get(row, "purchased_at", "ordered_at", "date"))
		if err != nil {
			return eris.Wrapf(err, "importer: purchases row %d", line)
		}

		c := model.PurchaseCandidate{
			ChainID:        h.get(row, "chain_id"),
			OrderID:        h.get(row, "order_id"),
			OrderNumber:    h.get(row, "order_number", "order_no"),
			PurchasedAt:    purchasedAt,
			Title:          h.get(row, "title", "product", "product_name"),
			SKUKey:         h.get(row, "sku", "sku_key", "style_id"),
			Size:           h.get(row, "size", "variant"),
			Status:         model.PurchaseStatus(h.get(row, "status")),
			TrackingNumber: h.get(row, "tracking_number", "tracking"),
			CheckoutType:   h.get(row, "checkout_type"),
		}
		if raw := h.get(row, "total_cost", "cost"); raw != "" {
			cost, err := parsePrice(raw)
			if err != nil {
				return eris.Wrapf(err, "importer: purchases row %d", line)
			}
			c.TotalCost = &cost
		}

		candidates = append(candidates, c)
		return nil
	})
	return candidates, err
}

// eachRow streams a headered CSV, calling fn for every data row. Rows may
// have variable field counts; fields are trimmed.
func eachRow(ctx context.Context, r io.Reader, fn func(h header, row []string, line int) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var h header
	line := 0
	for {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "importer: cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return eris.Wrapf(err, "importer: read row %d", line+1)
		}
		line++

		for i, field := range record {
			record[i] = trimBOM(field)
		}

		if h == nil {
			h = newHeader(record)
			continue
		}
		if err := fn(h, record, line); err != nil {
			return err
		}
	}

	if h == nil {
		return eris.New("importer: empty file")
	}
	return nil
}

func trimBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return s[3:]
	}
	return s
}
