package model

import "time"

// SaleLineItem is one sold unit of one product from the storefront ledger.
// It is produced by the storefront client or the ledger importer, already
// flattened to one row per unit with the size pulled out of variant metadata.
// The matching engine treats it as immutable input.
type SaleLineItem struct {
	OrderID    string    `json:"order_id"`
	OrderName  string    `json:"order_name"`
	CreatedAt  time.Time `json:"created_at"`
	Title      string    `json:"title"`
	SKU        string    `json:"sku,omitempty"`
	Size       string    `json:"size,omitempty"`
	Currency   string    `json:"currency"`
	TotalPrice float64   `json:"total_price"`
}
