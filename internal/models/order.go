package models

import "time"

// Order is a read-only snapshot of one order record in the external CMS.
// The segmentation pipeline never mutates it; missing fields on the wire
// arrive here as zero values (lenient aggregation handles the rest).
type Order struct {
	ID          string          `json:"id"`
	TotalAmount float64         `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	Status      string          `json:"status"`
	Items       []OrderLineItem `json:"items"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)
