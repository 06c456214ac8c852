package models

import (
	"fmt"
	"time"
)

// Segment is the classifier's output label for a customer.
type Segment string

const (
	SegmentVIP       Segment = "vip"
	SegmentB2B       Segment = "b2b"
	SegmentMiddleman Segment = "middleman"
	SegmentB2C       Segment = "b2c"
)

// ParseSegment validates a raw segment value coming from an API request or
// a stored customer record.
func ParseSegment(value string) (Segment, error) {
	switch Segment(value) {
	case SegmentVIP, SegmentB2B, SegmentMiddleman, SegmentB2C:
		return Segment(value), nil
	}
	return "", fmt.Errorf("unknown segment %q", value)
}

// AllSegments lists every segment in classifier priority order.
func AllSegments() []Segment {
	return []Segment{SegmentVIP, SegmentMiddleman, SegmentB2B, SegmentB2C}
}

// OrderCriteria is the statistical summary derived from a customer's order
// history. Computed fresh on every classification request, never stored on
// its own; a snapshot of it travels inside SegmentDetails.
//
// For a customer with zero orders every numeric field is 0 and both dates
// are nil.
type OrderCriteria struct {
	TotalOrders            int        `json:"totalOrders"`
	OrdersLast30Days       int        `json:"ordersLast30Days"`
	TotalSpend             float64    `json:"totalSpend"`
	AvgOrderValue          float64    `json:"avgOrderValue"`
	OrderFrequencyPerMonth float64    `json:"orderFrequencyPerMonth"`
	RepeatSimilarity       float64    `json:"repeatSimilarity"`
	FirstOrderDate         *time.Time `json:"firstOrderDate,omitempty"`
	LastOrderDate          *time.Time `json:"lastOrderDate,omitempty"`
}

// SegmentDetails is the payload persisted alongside a segment on the
// customer record: the human-readable justification plus the criteria
// snapshot that produced it.
type SegmentDetails struct {
	Reason   string        `json:"reason"`
	Criteria OrderCriteria `json:"criteria"`
}

// SegmentStatus is the service-level view of a customer's stored
// segmentation state. Classified is false when the customer has never been
// classified (manually or automatically).
type SegmentStatus struct {
	CustomerID   string         `json:"customerId"`
	Classified   bool           `json:"classified"`
	Segment      Segment        `json:"segment,omitempty"`
	AutoDetected bool           `json:"autoDetected"`
	Reason       string         `json:"reason,omitempty"`
	Criteria     *OrderCriteria `json:"criteria,omitempty"`
	LastUpdate   *time.Time     `json:"lastUpdate,omitempty"`
}
