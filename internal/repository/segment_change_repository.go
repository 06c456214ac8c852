package repository

import (
	"segmentation_service/internal/models"

	"gorm.io/gorm"
)

type SegmentChangeRepository interface {
	Create(change *models.SegmentChange) error
	GetByCustomerID(customerID string, limit int) ([]models.SegmentChange, error)
	CountBySegment() (map[string]int64, error)
	GetAll() ([]models.SegmentChange, error)
}

type segmentChangeRepository struct {
	db *gorm.DB
}

func NewSegmentChangeRepository(db *gorm.DB) SegmentChangeRepository {
	return &segmentChangeRepository{db: db}
}

func (r *segmentChangeRepository) Create(change *models.SegmentChange) error {
	return r.db.Create(change).Error
}

func (r *segmentChangeRepository) GetByCustomerID(customerID string, limit int) ([]models.SegmentChange, error) {
	var changes []models.SegmentChange
	query := r.db.Where("customer_id = ?", customerID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&changes).Error
	return changes, err
}

func (r *segmentChangeRepository) CountBySegment() (map[string]int64, error) {
	type row struct {
		NewSegment string
		Count      int64
	}
	var rows []row
	err := r.db.Model(&models.SegmentChange{}).
		Select("new_segment, count(*) as count").
		Group("new_segment").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.NewSegment] = r.Count
	}
	return counts, nil
}

func (r *segmentChangeRepository) GetAll() ([]models.SegmentChange, error) {
	var changes []models.SegmentChange
	err := r.db.Order("created_at DESC").Find(&changes).Error
	return changes, err
}
