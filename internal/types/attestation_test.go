package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWalletScreeningRequest(t *testing.T) {
	address := "0x1234567890abcdef1234567890abcdef12345678"
	req := NewWalletScreeningRequest("1672", address)

	assert.Equal(t, address, req.SenderAddress)
	require.Contains(t, req.KernelPayload, "1672")

	params := req.KernelPayload["1672"].Parameters
	assert.Equal(t, address, params.Body["address"])
	assert.Empty(t, params.Header)
	assert.Empty(t, params.Query)
	assert.Empty(t, params.Path)

	// All four parameter slots serialize as objects, not null.
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
}

func TestNormalizeSnakeCase(t *testing.T) {
	payload, err := ParseAuthorityPayload(json.RawMessage(`{
		"auth": "0x01",
		"kernel_responses": "0x02",
		"kernel_params": "0x03"
	}`))
	require.NoError(t, err)

	envelope, err := payload.Normalize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, []byte(envelope.AuthProof))
	assert.Equal(t, []byte{0x02}, []byte(envelope.KernelResponses))
	assert.Equal(t, []byte{0x03}, []byte(envelope.KernelParameters))
}

func TestNormalizeCamelCase(t *testing.T) {
	payload, err := ParseAuthorityPayload(json.RawMessage(`{
		"auth": "0x0a",
		"kernelResponses": "0x0b",
		"kernelParams": "0x0c"
	}`))
	require.NoError(t, err)

	envelope, err := payload.Normalize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a}, []byte(envelope.AuthProof))
	assert.Equal(t, []byte{0x0b}, []byte(envelope.KernelResponses))
	assert.Equal(t, []byte{0x0c}, []byte(envelope.KernelParameters))
}

func TestNormalizePrefersSnakeCase(t *testing.T) {
	payload, err := ParseAuthorityPayload(json.RawMessage(`{
		"auth": "0x01",
		"kernel_responses": "0x02",
		"kernelResponses": "0xff",
		"kernel_params": "0x03",
		"kernelParams": "0xff"
	}`))
	require.NoError(t, err)

	envelope, err := payload.Normalize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, []byte(envelope.KernelResponses))
	assert.Equal(t, []byte{0x03}, []byte(envelope.KernelParameters))
}

func TestNormalizeMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		missing string
	}{
		{"missing auth", `{"kernel_responses": "0x02", "kernel_params": "0x03"}`, "auth"},
		{"missing responses", `{"auth": "0x01", "kernel_params": "0x03"}`, "kernel responses"},
		{"missing params", `{"auth": "0x01", "kernel_responses": "0x02"}`, "kernel params"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ParseAuthorityPayload(json.RawMessage(tt.raw))
			require.NoError(t, err)

			_, err = payload.Normalize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	payload := &AuthorityPayload{
		Auth:                 "0x01",
		KernelResponsesSnake: "0x02",
		KernelParamsSnake:    "0x03",
	}

	first, err := payload.Normalize()
	require.NoError(t, err)
	second, err := payload.Normalize()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseAuthorityPayloadInvalidJSON(t *testing.T) {
	_, err := ParseAuthorityPayload(json.RawMessage(`"just a string"`))
	assert.Error(t, err)
}
