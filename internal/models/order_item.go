package models

// OrderLineItem is one product line within a CMS order record. Every field
// is optional on the wire; similarity scoring substitutes "unknown" for
// anything that is absent.
type OrderLineItem struct {
	ProductType string `json:"productType"`
	Description string `json:"description"`
	Color       string `json:"color"`
	PrintMethod string `json:"printMethod"`
	Quantity    int    `json:"quantity"`
}
