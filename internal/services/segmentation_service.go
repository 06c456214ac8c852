package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"segmentation_service/internal/events"
	"segmentation_service/internal/models"
	"segmentation_service/internal/redis"
	"segmentation_service/internal/repository"
	"segmentation_service/internal/segmentation"
	"segmentation_service/pkg/cms"
)

// CMSClient is the slice of the CMS API the orchestrator consumes.
type CMSClient interface {
	FetchCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error)
	FetchCustomer(ctx context.Context, customerID string) (*cms.Customer, error)
	UpdateCustomerSegment(ctx context.Context, customerID string, update cms.SegmentUpdate) error
	ListCustomerSegments(ctx context.Context) ([]cms.CustomerSegment, error)
}

// SegmentCache holds the Redis-backed caches; *redis.Client satisfies it.
type SegmentCache interface {
	GetDistribution() (map[models.Segment]int, error)
	SetDistribution(dist map[models.Segment]int, ttl time.Duration) error
	InvalidateDistribution() error
	GetCustomerSegment(customerID string) (*models.SegmentStatus, error)
	SetCustomerSegment(customerID string, status *models.SegmentStatus, ttl time.Duration) error
	InvalidateCustomerSegment(customerID string) error
}

// DetectionResult reports one classification pass: what the customer was
// stored as before, what the rules produced now, and whether the result
// was written back.
type DetectionResult struct {
	CustomerID      string               `json:"customerId"`
	PreviousSegment models.Segment       `json:"previousSegment,omitempty"`
	NewSegment      models.Segment       `json:"newSegment"`
	Changed         bool                 `json:"changed"`
	Updated         bool                 `json:"updated"`
	Reason          string               `json:"reason"`
	Criteria        models.OrderCriteria `json:"criteria"`
}

// SweepSummary reports one full re-segmentation run.
type SweepSummary struct {
	Processed int                    `json:"processed"`
	Changed   int                    `json:"changed"`
	Skipped   int                    `json:"skipped"`
	Failed    int                    `json:"failed"`
	BySegment map[models.Segment]int `json:"bySegment"`
}

type SegmentationService interface {
	GetSegment(ctx context.Context, customerID string) (*models.SegmentStatus, error)
	DetectAndUpdateSegment(ctx context.Context, customerID string, autoUpdate bool) (*DetectionResult, error)
	OverrideSegment(ctx context.Context, customerID string, segment models.Segment) (*DetectionResult, error)
	GetSegmentDistribution(ctx context.Context) (map[models.Segment]int, error)
	GetSegmentHistory(customerID string, limit int) ([]models.SegmentChange, error)
	ResegmentAllCustomers(ctx context.Context) (*SweepSummary, error)
}

type segmentationService struct {
	cmsClient   CMSClient
	classifier  *segmentation.Classifier
	historyRepo repository.SegmentChangeRepository
	cache       SegmentCache
	publisher   events.Publisher
	cacheTTL    time.Duration
}

// NewSegmentationService wires the orchestrator. cache and publisher may be
// nil; both concerns are optional and never fail a request.
func NewSegmentationService(
	cmsClient CMSClient,
	classifier *segmentation.Classifier,
	historyRepo repository.SegmentChangeRepository,
	cache SegmentCache,
	publisher events.Publisher,
	cacheTTL time.Duration,
) SegmentationService {
	return &segmentationService{
		cmsClient:   cmsClient,
		classifier:  classifier,
		historyRepo: historyRepo,
		cache:       cache,
		publisher:   publisher,
		cacheTTL:    cacheTTL,
	}
}

// GetSegment reads the stored classification without recomputing anything.
// A customer that exists but was never classified comes back with
// Classified=false.
func (s *segmentationService) GetSegment(ctx context.Context, customerID string) (*models.SegmentStatus, error) {
	if s.cache != nil {
		if status, err := s.cache.GetCustomerSegment(customerID); err == nil {
			return status, nil
		} else if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("segment cache read failed for customer %s: %v", customerID, err)
		}
	}

	customer, err := s.cmsClient.FetchCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	status := statusFromCustomer(customerID, customer)

	if s.cache != nil {
		if err := s.cache.SetCustomerSegment(customerID, status, s.cacheTTL); err != nil {
			log.Printf("segment cache write failed for customer %s: %v", customerID, err)
		}
	}
	return status, nil
}

func statusFromCustomer(customerID string, customer *cms.Customer) *models.SegmentStatus {
	status := &models.SegmentStatus{
		CustomerID: customerID,
		LastUpdate: customer.LastSegmentUpdate,
	}
	if customer.Segment == "" {
		return status
	}

	status.Classified = true
	status.Segment = models.Segment(customer.Segment)
	if customer.SegmentAutoDetected != nil {
		status.AutoDetected = *customer.SegmentAutoDetected
	}
	if customer.SegmentDetails != nil {
		status.Reason = customer.SegmentDetails.Reason
		criteria := customer.SegmentDetails.Criteria
		status.Criteria = &criteria
	}
	return status
}

// DetectAndUpdateSegment runs the full pipeline for one customer: fetch
// order history, aggregate criteria, classify. When autoUpdate is true the
// result is written back to the CMS with autoDetected=true; an explicit
// auto run replaces a manual override. When the write fails the
// classification result is still returned alongside the error so the
// caller can retry the write on its own terms.
func (s *segmentationService) DetectAndUpdateSegment(ctx context.Context, customerID string, autoUpdate bool) (*DetectionResult, error) {
	customer, err := s.cmsClient.FetchCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	orders, err := s.cmsClient.FetchCustomerOrders(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	criteria := segmentation.Aggregate(orders, now)
	segment, reason := s.classifier.Classify(criteria)

	result := &DetectionResult{
		CustomerID:      customerID,
		PreviousSegment: models.Segment(customer.Segment),
		NewSegment:      segment,
		Changed:         customer.Segment != string(segment),
		Reason:          reason,
		Criteria:        criteria,
	}

	if !autoUpdate {
		return result, nil
	}

	update := cms.SegmentUpdate{
		Segment:             segment,
		SegmentAutoDetected: true,
		SegmentDetails: models.SegmentDetails{
			Reason:   reason,
			Criteria: criteria,
		},
		LastSegmentUpdate: now,
	}
	if err := s.cmsClient.UpdateCustomerSegment(ctx, customerID, update); err != nil {
		// The classification itself succeeded; hand it back with the
		// write failure.
		return result, err
	}
	result.Updated = true

	s.recordChange(result, true)
	s.afterWrite(customerID, result, true)
	return result, nil
}

// OverrideSegment forcibly stores an operator-chosen segment with
// autoDetected=false. The override sticks until the next explicit
// autoUpdate=true detection run.
func (s *segmentationService) OverrideSegment(ctx context.Context, customerID string, segment models.Segment) (*DetectionResult, error) {
	customer, err := s.cmsClient.FetchCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	const reason = "Manual override"
	result := &DetectionResult{
		CustomerID:      customerID,
		PreviousSegment: models.Segment(customer.Segment),
		NewSegment:      segment,
		Changed:         customer.Segment != string(segment),
		Reason:          reason,
	}

	update := cms.SegmentUpdate{
		Segment:             segment,
		SegmentAutoDetected: false,
		SegmentDetails:      models.SegmentDetails{Reason: reason},
		LastSegmentUpdate:   time.Now(),
	}
	if err := s.cmsClient.UpdateCustomerSegment(ctx, customerID, update); err != nil {
		return result, err
	}
	result.Updated = true

	s.recordChange(result, false)
	s.afterWrite(customerID, result, false)
	return result, nil
}

// recordChange appends the local audit row. Audit is best-effort: a dead
// local database must not fail a write that already landed in the CMS.
func (s *segmentationService) recordChange(result *DetectionResult, autoDetected bool) {
	if s.historyRepo == nil {
		return
	}

	snapshot := ""
	if autoDetected {
		if data, err := json.Marshal(result.Criteria); err == nil {
			snapshot = string(data)
		}
	}
	change := &models.SegmentChange{
		CustomerID:       result.CustomerID,
		PreviousSegment:  string(result.PreviousSegment),
		NewSegment:       string(result.NewSegment),
		Reason:           result.Reason,
		AutoDetected:     autoDetected,
		CriteriaSnapshot: snapshot,
	}
	if err := s.historyRepo.Create(change); err != nil {
		log.Printf("failed to record segment change for customer %s: %v", result.CustomerID, err)
	}
}

// afterWrite invalidates caches and, when the value actually changed,
// notifies the workflow system.
func (s *segmentationService) afterWrite(customerID string, result *DetectionResult, autoDetected bool) {
	if s.cache != nil {
		if err := s.cache.InvalidateCustomerSegment(customerID); err != nil {
			log.Printf("failed to invalidate segment cache for customer %s: %v", customerID, err)
		}
		if err := s.cache.InvalidateDistribution(); err != nil {
			log.Printf("failed to invalidate distribution cache: %v", err)
		}
	}

	if s.publisher != nil && result.Changed {
		event := events.SegmentChangedEvent{
			CustomerID:      customerID,
			PreviousSegment: result.PreviousSegment,
			NewSegment:      result.NewSegment,
			Reason:          result.Reason,
			AutoDetected:    autoDetected,
			OccurredAt:      time.Now(),
		}
		if err := s.publisher.PublishSegmentChanged(event); err != nil {
			log.Printf("failed to publish segment change for customer %s: %v", customerID, err)
		}
	}
}

// GetSegmentDistribution aggregates stored segments across all customers.
// Customers without a stored segment count as b2c in this report only.
func (s *segmentationService) GetSegmentDistribution(ctx context.Context) (map[models.Segment]int, error) {
	if s.cache != nil {
		if dist, err := s.cache.GetDistribution(); err == nil {
			return dist, nil
		} else if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("distribution cache read failed: %v", err)
		}
	}

	customers, err := s.cmsClient.ListCustomerSegments(ctx)
	if err != nil {
		return nil, err
	}

	dist := map[models.Segment]int{}
	for _, seg := range models.AllSegments() {
		dist[seg] = 0
	}
	for _, c := range customers {
		segment, err := models.ParseSegment(c.Segment)
		if err != nil {
			segment = models.SegmentB2C
		}
		dist[segment]++
	}

	if s.cache != nil {
		if err := s.cache.SetDistribution(dist, s.cacheTTL); err != nil {
			log.Printf("distribution cache write failed: %v", err)
		}
	}
	return dist, nil
}

// GetSegmentHistory returns the local audit trail, newest first.
func (s *segmentationService) GetSegmentHistory(customerID string, limit int) ([]models.SegmentChange, error) {
	if s.historyRepo == nil {
		return nil, fmt.Errorf("segment history is not enabled")
	}
	return s.historyRepo.GetByCustomerID(customerID, limit)
}

// ResegmentAllCustomers re-detects every customer except those carrying a
// manual override. Per-customer failures are logged and counted, never
// abort the sweep.
func (s *segmentationService) ResegmentAllCustomers(ctx context.Context) (*SweepSummary, error) {
	customers, err := s.cmsClient.ListCustomerSegments(ctx)
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{BySegment: map[models.Segment]int{}}
	for _, c := range customers {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if c.SegmentAutoDetected != nil && !*c.SegmentAutoDetected {
			summary.Skipped++
			continue
		}

		result, err := s.DetectAndUpdateSegment(ctx, c.ID, true)
		if err != nil {
			log.Printf("resegment sweep: customer %s failed: %v", c.ID, err)
			summary.Failed++
			continue
		}
		summary.Processed++
		summary.BySegment[result.NewSegment]++
		if result.Changed {
			summary.Changed++
		}
	}
	return summary, nil
}
