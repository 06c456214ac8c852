package segmentation

import (
	"fmt"

	"segmentation_service/internal/models"
)

// Thresholds are the tunable cut-offs behind the classification rules.
type Thresholds struct {
	VIPRecentOrders        int
	VIPTotalSpend          float64
	VIPOrderFrequency      float64
	MiddlemanAvgOrderValue float64
	MiddlemanMinOrders     int
	B2BMinOrders           int
	B2BMinSimilarity       float64
}

// DefaultThresholds returns the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VIPRecentOrders:        4,
		VIPTotalSpend:          10000,
		VIPOrderFrequency:      2,
		MiddlemanAvgOrderValue: 2000,
		MiddlemanMinOrders:     3,
		B2BMinOrders:           3,
		B2BMinSimilarity:       0.7,
	}
}

// rule is one row of the classification decision table.
type rule struct {
	name    string
	segment models.Segment
	matches func(models.OrderCriteria) bool
	reason  func(models.OrderCriteria) string
}

// Classifier maps an OrderCriteria summary to exactly one segment via an
// ordered decision table: rules are checked top to bottom and the first
// match wins, so VIP dominates Middleman, which dominates B2B. The final
// rule always matches and yields the B2C default.
type Classifier struct {
	rules []rule
}

// NewClassifier builds the decision table for the given thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{rules: []rule{
		{
			name:    "vip_recent_orders",
			segment: models.SegmentVIP,
			matches: func(c models.OrderCriteria) bool {
				return c.OrdersLast30Days >= t.VIPRecentOrders
			},
			reason: func(c models.OrderCriteria) string {
				return fmt.Sprintf("VIP: %d orders in the last 30 days", c.OrdersLast30Days)
			},
		},
		{
			name:    "vip_spend_frequency",
			segment: models.SegmentVIP,
			matches: func(c models.OrderCriteria) bool {
				return c.TotalSpend >= t.VIPTotalSpend && c.OrderFrequencyPerMonth >= t.VIPOrderFrequency
			},
			reason: func(c models.OrderCriteria) string {
				return fmt.Sprintf("VIP: $%.2f total spend at %.1f orders/month", c.TotalSpend, c.OrderFrequencyPerMonth)
			},
		},
		{
			name:    "middleman_high_value",
			segment: models.SegmentMiddleman,
			matches: func(c models.OrderCriteria) bool {
				return c.AvgOrderValue >= t.MiddlemanAvgOrderValue && c.TotalOrders >= t.MiddlemanMinOrders
			},
			reason: func(c models.OrderCriteria) string {
				return fmt.Sprintf("Middleman: $%.2f average order value across %d orders", c.AvgOrderValue, c.TotalOrders)
			},
		},
		{
			name:    "b2b_repeat_purchases",
			segment: models.SegmentB2B,
			matches: func(c models.OrderCriteria) bool {
				return c.TotalOrders >= t.B2BMinOrders && c.RepeatSimilarity >= t.B2BMinSimilarity
			},
			reason: func(c models.OrderCriteria) string {
				return fmt.Sprintf("B2B: %.0f%% repeat purchase similarity across %d orders", c.RepeatSimilarity*100, c.TotalOrders)
			},
		},
		{
			name:    "b2c_default",
			segment: models.SegmentB2C,
			matches: func(models.OrderCriteria) bool { return true },
			reason: func(models.OrderCriteria) string {
				return "B2C: Default segment, no higher-priority criteria met"
			},
		},
	}}
}

// Classify returns the first matching segment plus a reason restating the
// numbers that triggered it.
func (c *Classifier) Classify(criteria models.OrderCriteria) (models.Segment, string) {
	for _, r := range c.rules {
		if r.matches(criteria) {
			return r.segment, r.reason(criteria)
		}
	}
	// Unreachable: the default rule always matches.
	return models.SegmentB2C, "B2C: Default segment"
}
