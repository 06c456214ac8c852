// Package segmentation holds the pure segmentation core: criteria
// aggregation, repeat-purchase similarity scoring, and the rule-based
// classifier. Nothing in this package performs I/O or keeps state.
package segmentation

import (
	"sort"
	"time"

	"segmentation_service/internal/models"
)

// Months are approximated as 30 days for frequency math.
const month = 30 * 24 * time.Hour

// Aggregate reduces a customer's order history into an OrderCriteria
// summary. The orders may arrive in any order; now supplies the wall clock
// for the 30-day window and the months-since-first-order span.
//
// Orders missing a total amount contribute 0 to spend rather than failing
// aggregation.
func Aggregate(orders []models.Order, now time.Time) models.OrderCriteria {
	if len(orders) == 0 {
		return models.OrderCriteria{}
	}

	sorted := make([]models.Order, len(orders))
	copy(sorted, orders)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	first := sorted[0].CreatedAt
	last := sorted[len(sorted)-1].CreatedAt

	// Floor of one month keeps same-day cohorts from blowing up the
	// frequency division.
	months := float64(now.Sub(first)) / float64(month)
	if months < 1 {
		months = 1
	}

	windowStart := now.Add(-month)
	recent := 0
	totalSpend := 0.0
	for _, o := range sorted {
		totalSpend += o.TotalAmount
		if !o.CreatedAt.Before(windowStart) && !o.CreatedAt.After(now) {
			recent++
		}
	}

	return models.OrderCriteria{
		TotalOrders:            len(sorted),
		OrdersLast30Days:       recent,
		TotalSpend:             totalSpend,
		AvgOrderValue:          totalSpend / float64(len(sorted)),
		OrderFrequencyPerMonth: float64(len(sorted)) / months,
		RepeatSimilarity:       Similarity(sorted),
		FirstOrderDate:         &first,
		LastOrderDate:          &last,
	}
}
