package repository

import (
	"fmt"

	"marketplace-backend/internal/models"

	"gorm.io/gorm"
)

// ListingRepository persists listing submission records.
type ListingRepository interface {
	Create(record *models.ListingRecord) error
	GetByVerificationID(verificationID string) (*models.ListingRecord, error)
	UpdateOutcome(verificationID, status, txHash, failureKind, detail string) error
	ListRecent(limit int) ([]models.ListingRecord, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a GORM-backed listing repository.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(record *models.ListingRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create listing record: %w", err)
	}
	return nil
}

func (r *listingRepository) GetByVerificationID(verificationID string) (*models.ListingRecord, error) {
	var record models.ListingRecord
	if err := r.db.Where("verification_id = ?", verificationID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *listingRepository) UpdateOutcome(verificationID, status, txHash, failureKind, detail string) error {
	updates := map[string]interface{}{
		"status":       status,
		"tx_hash":      txHash,
		"failure_kind": failureKind,
		"detail":       detail,
	}
	result := r.db.Model(&models.ListingRecord{}).
		Where("verification_id = ?", verificationID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update listing record: %w", result.Error)
	}
	return nil
}

func (r *listingRepository) ListRecent(limit int) ([]models.ListingRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var records []models.ListingRecord
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list listing records: %w", err)
	}
	return records, nil
}
