package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"segmentation_service/internal/models"
	"segmentation_service/internal/services"
	"segmentation_service/pkg/cms"
)

type SegmentHandler struct {
	segmentationService services.SegmentationService
}

func NewSegmentHandler(segmentationService services.SegmentationService) *SegmentHandler {
	return &SegmentHandler{segmentationService: segmentationService}
}

// GetSegment returns the stored segment for one customer without
// recomputing it.
func (h *SegmentHandler) GetSegment(c *gin.Context) {
	customerID := c.Param("customer_id")

	status, err := h.segmentationService.GetSegment(c.Request.Context(), customerID)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// DetectSegment runs the classification pipeline. With auto_update=true the
// result is persisted back to the customer record.
func (h *SegmentHandler) DetectSegment(c *gin.Context) {
	customerID := c.Param("customer_id")

	var req struct {
		AutoUpdate bool `json:"auto_update"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
	}

	result, err := h.segmentationService.DetectAndUpdateSegment(c.Request.Context(), customerID, req.AutoUpdate)
	if err != nil {
		if result != nil {
			// Classification succeeded but the write-back did not; hand
			// both facts to the caller.
			c.JSON(http.StatusBadGateway, gin.H{
				"error":  err.Error(),
				"result": result,
			})
			return
		}
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// OverrideSegment forcibly sets a segment chosen by an operator.
func (h *SegmentHandler) OverrideSegment(c *gin.Context) {
	customerID := c.Param("customer_id")

	var req struct {
		Segment string `json:"segment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	segment, err := models.ParseSegment(req.Segment)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.segmentationService.OverrideSegment(c.Request.Context(), customerID, segment)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSegmentHistory returns the local audit trail for one customer.
func (h *SegmentHandler) GetSegmentHistory(c *gin.Context) {
	customerID := c.Param("customer_id")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	changes, err := h.segmentationService.GetSegmentHistory(customerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer_id": customerID,
		"changes":     changes,
	})
}

// GetDistribution reports per-segment customer counts.
func (h *SegmentHandler) GetDistribution(c *gin.Context) {
	dist, err := h.segmentationService.GetSegmentDistribution(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	total := 0
	for _, count := range dist {
		total += count
	}
	c.JSON(http.StatusOK, gin.H{
		"distribution": dist,
		"total":        total,
	})
}

// ResegmentAll triggers a full sweep over all customers.
func (h *SegmentHandler) ResegmentAll(c *gin.Context) {
	summary, err := h.segmentationService.ResegmentAllCustomers(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func respondUpstreamError(c *gin.Context, err error) {
	if errors.Is(err, cms.ErrCustomerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
