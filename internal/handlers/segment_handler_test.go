package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"segmentation_service/internal/models"
	"segmentation_service/internal/services"
	"segmentation_service/pkg/cms"
)

type fakeSegmentationService struct {
	status       *models.SegmentStatus
	result       *services.DetectionResult
	distribution map[models.Segment]int
	err          error

	overrideSegment models.Segment
	detectAuto      *bool
}

func (f *fakeSegmentationService) GetSegment(ctx context.Context, customerID string) (*models.SegmentStatus, error) {
	return f.status, f.err
}

func (f *fakeSegmentationService) DetectAndUpdateSegment(ctx context.Context, customerID string, autoUpdate bool) (*services.DetectionResult, error) {
	f.detectAuto = &autoUpdate
	return f.result, f.err
}

func (f *fakeSegmentationService) OverrideSegment(ctx context.Context, customerID string, segment models.Segment) (*services.DetectionResult, error) {
	f.overrideSegment = segment
	return f.result, f.err
}

func (f *fakeSegmentationService) GetSegmentDistribution(ctx context.Context) (map[models.Segment]int, error) {
	return f.distribution, f.err
}

func (f *fakeSegmentationService) GetSegmentHistory(customerID string, limit int) ([]models.SegmentChange, error) {
	return nil, f.err
}

func (f *fakeSegmentationService) ResegmentAllCustomers(ctx context.Context) (*services.SweepSummary, error) {
	return &services.SweepSummary{}, f.err
}

func setupRouter(svc services.SegmentationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewSegmentHandler(svc)

	router := gin.New()
	router.GET("/api/customers/:customer_id/segment", handler.GetSegment)
	router.POST("/api/customers/:customer_id/segment/detect", handler.DetectSegment)
	router.PUT("/api/customers/:customer_id/segment", handler.OverrideSegment)
	router.GET("/api/segments/distribution", handler.GetDistribution)
	return router
}

func TestGetSegmentEndpoint(t *testing.T) {
	svc := &fakeSegmentationService{
		status: &models.SegmentStatus{
			CustomerID: "c1",
			Classified: true,
			Segment:    models.SegmentVIP,
			Reason:     "VIP: 4 orders in the last 30 days",
		},
	}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/customers/c1/segment", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body models.SegmentStatus
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Segment != models.SegmentVIP {
		t.Errorf("segment = %s, want vip", body.Segment)
	}
}

func TestGetSegmentEndpoint_NotFound(t *testing.T) {
	svc := &fakeSegmentationService{err: cms.ErrCustomerNotFound}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/customers/missing/segment", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestDetectSegmentEndpoint_PassesAutoUpdate(t *testing.T) {
	svc := &fakeSegmentationService{
		result: &services.DetectionResult{CustomerID: "c1", NewSegment: models.SegmentB2B},
	}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"auto_update": true}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/customers/c1/segment/detect", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if svc.detectAuto == nil || !*svc.detectAuto {
		t.Error("auto_update=true was not passed to the service")
	}
}

func TestDetectSegmentEndpoint_DefaultsToDryRun(t *testing.T) {
	svc := &fakeSegmentationService{
		result: &services.DetectionResult{CustomerID: "c1", NewSegment: models.SegmentB2C},
	}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/customers/c1/segment/detect", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if svc.detectAuto == nil || *svc.detectAuto {
		t.Error("missing body should default to auto_update=false")
	}
}

func TestOverrideSegmentEndpoint(t *testing.T) {
	svc := &fakeSegmentationService{
		result: &services.DetectionResult{CustomerID: "c1", NewSegment: models.SegmentVIP, Reason: "Manual override"},
	}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"segment": "vip"}`)
	req, _ := http.NewRequest(http.MethodPut, "/api/customers/c1/segment", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if svc.overrideSegment != models.SegmentVIP {
		t.Errorf("service received segment %q", svc.overrideSegment)
	}
}

func TestOverrideSegmentEndpoint_RejectsUnknownSegment(t *testing.T) {
	svc := &fakeSegmentationService{}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"segment": "platinum"}`)
	req, _ := http.NewRequest(http.MethodPut, "/api/customers/c1/segment", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if svc.overrideSegment != "" {
		t.Error("invalid segment must not reach the service")
	}
}

func TestDistributionEndpoint(t *testing.T) {
	svc := &fakeSegmentationService{
		distribution: map[models.Segment]int{
			models.SegmentVIP: 2,
			models.SegmentB2C: 10,
		},
	}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/segments/distribution", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Distribution map[models.Segment]int `json:"distribution"`
		Total        int                    `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Total != 12 {
		t.Errorf("total = %d, want 12", body.Total)
	}
}
