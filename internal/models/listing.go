package models

import (
	"time"
)

// Listing record lifecycle states.
const (
	ListingStatusPending   = "pending"   // attestation requested
	ListingStatusSubmitted = "submitted" // transaction broadcast
	ListingStatusConfirmed = "confirmed" // receipt observed
	ListingStatusFailed    = "failed"    // typed failure recorded
)

// ListingRecord is the audit trail of one listing submission attempt. The
// attestation envelope itself is never stored: persisting it would defeat the
// replay protection the contract relies on. Only the outcome is kept.
type ListingRecord struct {
	ID             string `gorm:"type:varchar(36);primaryKey" json:"id"`
	VerificationID string `gorm:"type:varchar(100);uniqueIndex;not null" json:"verification_id"`
	SellerAddress  string `gorm:"type:varchar(42);index;not null" json:"seller_address"`
	AssetType      string `gorm:"type:varchar(100);not null" json:"asset_type"`
	AssetName      string `gorm:"type:varchar(255);not null" json:"asset_name"`
	GameTitle      string `gorm:"type:varchar(255);not null" json:"game_title"`
	PriceWei       string `gorm:"type:varchar(78);not null" json:"price_wei"` // uint256 decimal string
	RiskLevel      string `gorm:"type:varchar(20)" json:"risk_level"`

	Status      string `gorm:"type:varchar(20);index;not null" json:"status"`
	TxHash      string `gorm:"type:varchar(66);index" json:"tx_hash"`
	FailureKind string `gorm:"type:varchar(40)" json:"failure_kind,omitempty"`
	Detail      string `gorm:"type:text" json:"detail,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for GORM
func (ListingRecord) TableName() string {
	return "listing_records"
}
