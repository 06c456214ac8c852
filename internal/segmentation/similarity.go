package segmentation

import (
	"strings"

	"segmentation_service/internal/models"
)

// Token substituted for any line-item field that is absent.
const unknownToken = "unknown"

// Similarity scores how repetitive a customer's purchases are across their
// order history, in [0, 1]. 0 means every line item is unique; values near
// 1 mean most line items describe the same product. Returns exactly 0 for
// fewer than two orders or when no order carries any line items.
//
// Known limitation: line items with no data at all collapse onto the same
// all-"unknown" signature, so sparsely populated order records score as
// highly similar.
func Similarity(orders []models.Order) float64 {
	if len(orders) < 2 {
		return 0
	}

	signatures := []string{}
	for _, o := range orders {
		for _, item := range o.Items {
			signatures = append(signatures, productSignature(item))
		}
	}
	if len(signatures) == 0 {
		return 0
	}

	distinct := map[string]struct{}{}
	for _, sig := range signatures {
		distinct[sig] = struct{}{}
	}

	score := 1 - float64(len(distinct))/float64(len(signatures))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// productSignature fingerprints one line item as
// product|color|method|bucket. Product falls back to the free-text
// description when no product type is set.
func productSignature(item models.OrderLineItem) string {
	product := normalize(item.ProductType)
	if product == unknownToken {
		product = normalize(item.Description)
	}
	return strings.Join([]string{
		product,
		normalize(item.Color),
		normalize(item.PrintMethod),
		quantityBucket(item.Quantity),
	}, "|")
}

func normalize(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return unknownToken
	}
	return value
}

// quantityBucket coarsens a quantity into a print-run size class so that
// near-identical reorders fingerprint the same.
func quantityBucket(quantity int) string {
	switch {
	case quantity <= 0:
		return unknownToken
	case quantity <= 12:
		return "small"
	case quantity <= 48:
		return "medium"
	case quantity <= 144:
		return "large"
	default:
		return "bulk"
	}
}
