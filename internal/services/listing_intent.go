package services

import (
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"marketplace-backend/internal/utils"
)

// ListingIntent is the caller-supplied listing description, pre-attestation.
// The same instance must be used for the attestation request and the ledger
// submission so that the amount attested equals the amount submitted.
type ListingIntent struct {
	VerificationID string `json:"verificationId"`
	AssetType      string `json:"assetType"`
	AssetName      string `json:"assetName"`
	GameTitle      string `json:"gameTitle"`
	Price          string `json:"price"` // major units, decimal string
}

// Validate checks the intent invariants: all five fields non-empty, price a
// positive decimal. Runs strictly before any network call.
func (i *ListingIntent) Validate() error {
	fields := map[string]string{
		"verificationId": i.VerificationID,
		"assetType":      i.AssetType,
		"assetName":      i.AssetName,
		"gameTitle":      i.GameTitle,
		"price":          i.Price,
	}
	for _, name := range []string{"verificationId", "assetType", "assetName", "gameTitle", "price"} {
		if fields[name] == "" {
			return NewGatewayError(FailureValidation, fmt.Sprintf("listing field %s is required", name), nil)
		}
	}
	if _, err := utils.ParsePositiveDecimalToWei(i.Price); err != nil {
		return NewGatewayError(FailureValidation, "price must be a valid positive number", err)
	}
	return nil
}

// PriceWei returns the price scaled to 18-decimal minor units. Exact decimal
// arithmetic only; a float conversion could silently misstate the transacted
// value.
func (i *ListingIntent) PriceWei() (*big.Int, error) {
	wei, err := utils.ParsePositiveDecimalToWei(i.Price)
	if err != nil {
		return nil, NewGatewayError(FailureValidation, "price must be a valid positive number", err)
	}
	return wei, nil
}

// GenerateVerificationID produces a unique verification ID using monotonic
// time plus a random suffix. Uniqueness per attestation is the caller's
// invariant; IDs from this scheme must never be reused.
func GenerateVerificationID() string {
	return fmt.Sprintf("verify-%d-%d", time.Now().UnixMilli(), rand.Intn(1000000))
}
