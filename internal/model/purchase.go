package model

import "time"

// PurchaseStatus represents the fulfillment state of a supplier purchase order.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusOrdered   PurchaseStatus = "ordered"
	PurchaseStatusShipped   PurchaseStatus = "shipped"
	PurchaseStatusDelivered PurchaseStatus = "delivered"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// PurchaseCandidate is one purchase order placed with the resale marketplace
// that could fulfill a sale. Identifiers are opaque strings from the
// marketplace API. TotalCost is nil until the enrichment step has run;
// TrackingNumber and CheckoutType are enrichment pass-through fields not used
// for matching itself.
type PurchaseCandidate struct {
	ChainID        string         `json:"chain_id"`
	OrderID        string         `json:"order_id"`
	OrderNumber    string         `json:"order_number"`
	PurchasedAt    time.Time      `json:"purchased_at"`
	Title          string         `json:"title"`
	SKUKey         string         `json:"sku_key"`
	Size           string         `json:"size,omitempty"`
	TotalCost      *float64       `json:"total_cost,omitempty"`
	Status         PurchaseStatus `json:"status"`
	TrackingNumber string         `json:"tracking_number,omitempty"`
	CheckoutType   string         `json:"checkout_type,omitempty"`
}
