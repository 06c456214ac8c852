package segmentation

import (
	"testing"
	"time"

	"segmentation_service/internal/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func orderAt(daysAgo int, total float64) models.Order {
	return models.Order{
		ID:          "o",
		TotalAmount: total,
		CreatedAt:   testNow.AddDate(0, 0, -daysAgo),
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	criteria := Aggregate(nil, testNow)

	if criteria.TotalOrders != 0 || criteria.OrdersLast30Days != 0 {
		t.Errorf("expected zero counts, got %+v", criteria)
	}
	if criteria.TotalSpend != 0 || criteria.AvgOrderValue != 0 {
		t.Errorf("expected zero spend, got %+v", criteria)
	}
	if criteria.OrderFrequencyPerMonth != 0 || criteria.RepeatSimilarity != 0 {
		t.Errorf("expected zero frequency and similarity, got %+v", criteria)
	}
	if criteria.FirstOrderDate != nil || criteria.LastOrderDate != nil {
		t.Errorf("expected nil dates for empty input, got %+v", criteria)
	}
}

func TestAggregate_ConcreteScenario(t *testing.T) {
	// Four orders dated 5, 15, 25 and 60 days ago.
	orders := []models.Order{
		orderAt(5, 1000),
		orderAt(15, 2000),
		orderAt(25, 3000),
		orderAt(60, 4000),
	}

	criteria := Aggregate(orders, testNow)

	if criteria.TotalOrders != 4 {
		t.Errorf("TotalOrders = %d, want 4", criteria.TotalOrders)
	}
	if criteria.OrdersLast30Days != 3 {
		t.Errorf("OrdersLast30Days = %d, want 3", criteria.OrdersLast30Days)
	}
	if criteria.TotalSpend != 10000 {
		t.Errorf("TotalSpend = %.2f, want 10000", criteria.TotalSpend)
	}
	if criteria.AvgOrderValue != 2500 {
		t.Errorf("AvgOrderValue = %.2f, want 2500", criteria.AvgOrderValue)
	}
	// First order is 60 days old, i.e. exactly 2 months at 30 days per
	// month, so 4 orders give a frequency of 2/month.
	if criteria.OrderFrequencyPerMonth != 2 {
		t.Errorf("OrderFrequencyPerMonth = %.4f, want 2", criteria.OrderFrequencyPerMonth)
	}
}

func TestAggregate_SortsUnorderedInput(t *testing.T) {
	orders := []models.Order{
		orderAt(5, 100),
		orderAt(90, 100),
		orderAt(40, 100),
	}

	criteria := Aggregate(orders, testNow)

	wantFirst := testNow.AddDate(0, 0, -90)
	wantLast := testNow.AddDate(0, 0, -5)
	if criteria.FirstOrderDate == nil || !criteria.FirstOrderDate.Equal(wantFirst) {
		t.Errorf("FirstOrderDate = %v, want %v", criteria.FirstOrderDate, wantFirst)
	}
	if criteria.LastOrderDate == nil || !criteria.LastOrderDate.Equal(wantLast) {
		t.Errorf("LastOrderDate = %v, want %v", criteria.LastOrderDate, wantLast)
	}
}

func TestAggregate_SameDayCohortFrequencyFloor(t *testing.T) {
	// All orders placed today: months-since-first floors at 1, so the
	// frequency equals the order count instead of exploding.
	orders := []models.Order{
		orderAt(0, 500),
		orderAt(0, 500),
		orderAt(0, 500),
	}

	criteria := Aggregate(orders, testNow)

	if criteria.OrderFrequencyPerMonth != 3 {
		t.Errorf("OrderFrequencyPerMonth = %.4f, want 3", criteria.OrderFrequencyPerMonth)
	}
}

func TestAggregate_ThirtyDayWindowBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		daysAgo    int
		wantRecent int
	}{
		{"today counts", 0, 1},
		{"29 days ago counts", 29, 1},
		{"exactly 30 days ago counts", 30, 1},
		{"31 days ago does not count", 31, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			criteria := Aggregate([]models.Order{orderAt(tt.daysAgo, 100)}, testNow)
			if criteria.OrdersLast30Days != tt.wantRecent {
				t.Errorf("OrdersLast30Days = %d, want %d", criteria.OrdersLast30Days, tt.wantRecent)
			}
		})
	}
}

func TestAggregate_MissingTotalsCountAsZero(t *testing.T) {
	orders := []models.Order{
		orderAt(1, 0), // total absent upstream, decoded as 0
		orderAt(2, 300),
	}

	criteria := Aggregate(orders, testNow)

	if criteria.TotalSpend != 300 {
		t.Errorf("TotalSpend = %.2f, want 300", criteria.TotalSpend)
	}
	if criteria.AvgOrderValue != 150 {
		t.Errorf("AvgOrderValue = %.2f, want 150", criteria.AvgOrderValue)
	}
}

func TestAggregate_SingleOrder(t *testing.T) {
	criteria := Aggregate([]models.Order{orderAt(10, 2500)}, testNow)

	if criteria.TotalOrders != 1 {
		t.Errorf("TotalOrders = %d, want 1", criteria.TotalOrders)
	}
	if criteria.AvgOrderValue != 2500 {
		t.Errorf("AvgOrderValue = %.2f, want 2500", criteria.AvgOrderValue)
	}
	if criteria.RepeatSimilarity != 0 {
		t.Errorf("RepeatSimilarity = %.2f, want 0 for a single order", criteria.RepeatSimilarity)
	}
	if criteria.FirstOrderDate == nil || criteria.LastOrderDate == nil {
		t.Fatal("expected both dates to be set")
	}
	if !criteria.FirstOrderDate.Equal(*criteria.LastOrderDate) {
		t.Errorf("first and last dates should match for a single order")
	}
}
