package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToWei(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantWei string
		wantErr bool
	}{
		{name: "whole number", amount: "1", wantWei: "1000000000000000000"},
		{name: "simple fraction", amount: "1.5", wantWei: "1500000000000000000"},
		{name: "leading zero fraction", amount: "0.050", wantWei: "50000000000000000"},
		{name: "fraction only", amount: ".5", wantWei: "500000000000000000"},
		{name: "zero", amount: "0", wantWei: "0"},
		{name: "max precision", amount: "0.000000000000000001", wantWei: "1"},
		{name: "large value", amount: "123456789.987654321", wantWei: "123456789987654321000000000"},
		{name: "empty", amount: "", wantErr: true},
		{name: "negative", amount: "-1", wantErr: true},
		{name: "explicit plus sign", amount: "+1", wantErr: true},
		{name: "too many decimals", amount: "0.0000000000000000001", wantErr: true},
		{name: "not a number", amount: "abc", wantErr: true},
		{name: "two dots", amount: "1.2.3", wantErr: true},
		{name: "bare dot", amount: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wei, err := ParseDecimalToWei(tt.amount)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWei, wei.String())
		})
	}
}

func TestParsePositiveDecimalToWei(t *testing.T) {
	_, err := ParsePositiveDecimalToWei("0")
	assert.Error(t, err)

	_, err = ParsePositiveDecimalToWei("0.000")
	assert.Error(t, err)

	wei, err := ParsePositiveDecimalToWei("0.000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "1", wei.String())
}

func TestFormatWeiToDecimal(t *testing.T) {
	tests := []struct {
		wei  string
		want string
	}{
		{"1000000000000000000", "1"},
		{"1500000000000000000", "1.5"},
		{"50000000000000000", "0.05"},
		{"1", "0.000000000000000001"},
		{"0", "0"},
	}

	for _, tt := range tests {
		wei, ok := new(big.Int).SetString(tt.wei, 10)
		require.True(t, ok)
		assert.Equal(t, tt.want, FormatWeiToDecimal(wei))
	}

	assert.Equal(t, "0", FormatWeiToDecimal(nil))
}

// Parsing then formatting must restore a value that parses back to the same
// wei amount, so the recorded price and the submitted price can never drift.
func TestAmountRoundTrip(t *testing.T) {
	amounts := []string{"0.050", "1.5", "42", "0.000000000000000001", "999999.999999999999999999"}

	for _, amount := range amounts {
		wei, err := ParseDecimalToWei(amount)
		require.NoError(t, err)

		formatted := FormatWeiToDecimal(wei)
		reparsed, err := ParseDecimalToWei(formatted)
		require.NoError(t, err)

		assert.Equal(t, 0, wei.Cmp(reparsed), "round trip changed %s: %s -> %s", amount, wei, reparsed)
	}
}
