// Package cms is the HTTP client for the external headless CMS that owns
// customer and order records. The segmentation service is a pure consumer:
// it reads order history and customer segment fields, and writes back
// classification results. Requests are never retried here; upstream
// failures propagate to the caller.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"segmentation_service/internal/models"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Customer is the subset of a CMS customer record the segmentation service
// cares about. Pointer fields are absent when the customer has never been
// classified.
type Customer struct {
	ID                  string                 `json:"id"`
	Segment             string                 `json:"segment"`
	SegmentAutoDetected *bool                  `json:"segmentAutoDetected"`
	SegmentDetails      *models.SegmentDetails `json:"segmentDetails"`
	LastSegmentUpdate   *time.Time             `json:"lastSegmentUpdate"`
}

// CustomerSegment is the trimmed customer row returned by the distribution
// listing.
type CustomerSegment struct {
	ID                  string `json:"id"`
	Segment             string `json:"segment"`
	SegmentAutoDetected *bool  `json:"segmentAutoDetected"`
}

// SegmentUpdate is the write-back payload for a classification result.
type SegmentUpdate struct {
	Segment             models.Segment        `json:"segment"`
	SegmentAutoDetected bool                  `json:"segmentAutoDetected"`
	SegmentDetails      models.SegmentDetails `json:"segmentDetails"`
	LastSegmentUpdate   time.Time             `json:"lastSegmentUpdate"`
}

// Wire shapes. Order ids may arrive as strings or numbers depending on the
// CMS, and line items live under either "items" or "lineItems".
type orderRecord struct {
	ID          flexID       `json:"id"`
	TotalAmount *float64     `json:"totalAmount"`
	CreatedAt   string       `json:"createdAt"`
	Status      string       `json:"status"`
	Items       []itemRecord `json:"items"`
	LineItems   []itemRecord `json:"lineItems"`
}

type itemRecord struct {
	ProductType string `json:"productType"`
	Description string `json:"description"`
	Color       string `json:"color"`
	PrintMethod string `json:"printMethod"`
	Quantity    int    `json:"quantity"`
}

type customerRecord struct {
	ID                  flexID                 `json:"id"`
	Segment             string                 `json:"segment"`
	SegmentAutoDetected *bool                  `json:"segmentAutoDetected"`
	SegmentDetails      *models.SegmentDetails `json:"segmentDetails"`
	LastSegmentUpdate   *time.Time             `json:"lastSegmentUpdate"`
}

// FetchCustomerOrders returns the bounded order history for one customer,
// newest first. Orders missing a total amount are kept with a 0 total;
// unparseable timestamps become the zero time. Both defaults are logged.
func (c *Client) FetchCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	path := fmt.Sprintf("/orders?filters[customer]=%s&sort=createdAt:desc&limit=1000", url.QueryEscape(customerID))

	var records []orderRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, fmt.Errorf("failed to fetch orders for customer %s: %w", customerID, err)
	}

	orders := make([]models.Order, 0, len(records))
	missingTotals := 0
	badDates := 0
	for _, rec := range records {
		total := 0.0
		if rec.TotalAmount != nil {
			total = *rec.TotalAmount
		} else {
			missingTotals++
		}

		createdAt, err := time.Parse(time.RFC3339, rec.CreatedAt)
		if err != nil {
			badDates++
		}

		items := rec.Items
		if len(items) == 0 {
			items = rec.LineItems
		}
		lineItems := make([]models.OrderLineItem, 0, len(items))
		for _, it := range items {
			lineItems = append(lineItems, models.OrderLineItem{
				ProductType: it.ProductType,
				Description: it.Description,
				Color:       it.Color,
				PrintMethod: it.PrintMethod,
				Quantity:    it.Quantity,
			})
		}

		orders = append(orders, models.Order{
			ID:          string(rec.ID),
			TotalAmount: total,
			CreatedAt:   createdAt,
			Status:      rec.Status,
			Items:       lineItems,
		})
	}

	if missingTotals > 0 {
		log.Printf("cms: customer %s has %d/%d orders without totalAmount, treated as 0", customerID, missingTotals, len(records))
	}
	if badDates > 0 {
		log.Printf("cms: customer %s has %d/%d orders with unparseable createdAt", customerID, badDates, len(records))
	}

	return orders, nil
}

// FetchCustomer reads one customer record including any stored segment.
func (c *Client) FetchCustomer(ctx context.Context, customerID string) (*Customer, error) {
	var rec customerRecord
	if err := c.do(ctx, http.MethodGet, "/customers/"+url.PathEscape(customerID), nil, &rec); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to fetch customer %s: %w", customerID, err)
	}

	return &Customer{
		ID:                  string(rec.ID),
		Segment:             rec.Segment,
		SegmentAutoDetected: rec.SegmentAutoDetected,
		SegmentDetails:      rec.SegmentDetails,
		LastSegmentUpdate:   rec.LastSegmentUpdate,
	}, nil
}

// UpdateCustomerSegment persists a classification result on the customer
// record. Whole-record segment overwrite: concurrent writers race and the
// last one wins.
func (c *Client) UpdateCustomerSegment(ctx context.Context, customerID string, update SegmentUpdate) error {
	if err := c.do(ctx, http.MethodPut, "/customers/"+url.PathEscape(customerID), update, nil); err != nil {
		return fmt.Errorf("failed to update segment for customer %s: %w", customerID, err)
	}
	return nil
}

// ListCustomerSegments returns the segment column for all customers, used
// for distribution reporting and the re-segmentation sweep.
func (c *Client) ListCustomerSegments(ctx context.Context) ([]CustomerSegment, error) {
	var records []CustomerSegment
	if err := c.do(ctx, http.MethodGet, "/customers?limit=10000&fields=segment", nil, &records); err != nil {
		return nil, fmt.Errorf("failed to list customer segments: %w", err)
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrCustomerNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(unwrapData(respBody), out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// unwrapData strips the {"data": ...} envelope some CMS deployments wrap
// around responses; bare payloads pass through untouched.
func unwrapData(body []byte) []byte {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data
	}
	return body
}

// flexID accepts both string and numeric record ids.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}
