package models

import (
	"time"

	"gorm.io/gorm"
)

// SegmentChange is the local audit row recorded for every segment write the
// service performs against the CMS, whether auto-detected or a manual
// override. CriteriaSnapshot holds the OrderCriteria JSON that backed the
// decision (empty for overrides).
type SegmentChange struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	CustomerID       string         `json:"customer_id" gorm:"index;not null"`
	PreviousSegment  string         `json:"previous_segment"`
	NewSegment       string         `json:"new_segment" gorm:"not null"`
	Reason           string         `json:"reason"`
	AutoDetected     bool           `json:"auto_detected"`
	CriteriaSnapshot string         `json:"criteria_snapshot" gorm:"type:json"`
	CreatedAt        time.Time      `json:"created_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
