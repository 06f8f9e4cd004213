package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIntent() *ListingIntent {
	return &ListingIntent{
		VerificationID: "verify-1700000000000-123456",
		AssetType:      "weapon",
		AssetName:      "Dragon Slayer Sword",
		GameTitle:      "Fantasy Quest",
		Price:          "0.050",
	}
}

func TestListingIntentValidate(t *testing.T) {
	assert.NoError(t, validIntent().Validate())

	clear := []struct {
		field string
		mod   func(*ListingIntent)
	}{
		{"verificationId", func(i *ListingIntent) { i.VerificationID = "" }},
		{"assetType", func(i *ListingIntent) { i.AssetType = "" }},
		{"assetName", func(i *ListingIntent) { i.AssetName = "" }},
		{"gameTitle", func(i *ListingIntent) { i.GameTitle = "" }},
		{"price", func(i *ListingIntent) { i.Price = "" }},
	}

	for _, tt := range clear {
		t.Run(tt.field, func(t *testing.T) {
			intent := validIntent()
			tt.mod(intent)

			err := intent.Validate()
			require.Error(t, err)
			kind, ok := FailureKindOf(err)
			assert.True(t, ok)
			assert.Equal(t, FailureValidation, kind)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestListingIntentValidatePrice(t *testing.T) {
	for _, price := range []string{"0", "-1", "abc", "1.2.3", "0.0000000000000000001"} {
		intent := validIntent()
		intent.Price = price

		err := intent.Validate()
		require.Error(t, err, "price %q should be rejected", price)
		kind, _ := FailureKindOf(err)
		assert.Equal(t, FailureValidation, kind)
	}
}

func TestListingIntentPriceWei(t *testing.T) {
	intent := validIntent()
	wei, err := intent.PriceWei()
	require.NoError(t, err)
	assert.Equal(t, "50000000000000000", wei.String())
}

func TestGenerateVerificationID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id := GenerateVerificationID()
		assert.True(t, strings.HasPrefix(id, "verify-"))
		assert.False(t, seen[id], "duplicate verification ID %s", id)
		seen[id] = true
	}
}
