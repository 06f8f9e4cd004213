package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-backend/internal/clients"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/events"
	"marketplace-backend/internal/services"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignerKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// stubBackend is a minimal in-memory ledger for handler tests.
type stubBackend struct {
	sendErr error
	sent    []*ethtypes.Transaction
}

func (b *stubBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(11155111), nil
}

func (b *stubBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 1, nil
}

func (b *stubBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1000000000), nil
}

func (b *stubBackend) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *stubBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	if len(b.sent) == 0 {
		return nil, errors.New("not found")
	}
	return &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		TxHash:      txHash,
		BlockNumber: big.NewInt(10),
	}, nil
}

func newListingTestRouter(t *testing.T, authorityURL string, backend services.ChainBackend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	krnlCfg := config.KRNLConfig{
		RPCURL:      authorityURL,
		EntryID:     "entry-1",
		AccessToken: "token-1",
		KernelID:    "1672",
		Timeout:     5,
	}
	attestationService := services.NewAttestationService(clients.NewKrnlClient(krnlCfg), krnlCfg)

	listingService, err := services.NewListingService(backend, config.BlockchainConfig{
		MarketplaceContract: "0x9999999999999999999999999999999999999999",
		GasLimit:            800000,
	})
	require.NoError(t, err)

	signer, err := services.NewPrivateKeySigner(testSignerKey)
	require.NoError(t, err)

	h := NewListingHandler(
		attestationService,
		listingService,
		services.NewRiskScorer(),
		signer,
		nil,
		events.NewPublisher(nil),
		5*time.Second,
	)

	r := gin.New()
	r.POST("/api/listings", h.CreateListingHandler)
	r.GET("/api/listings/:verificationId", h.GetListingHandler)
	return r
}

func postListing(r *gin.Engine, body map[string]string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/listings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func validListingBody() map[string]string {
	return map[string]string{
		"address":   "0x1234567890abcdef1234567890abcdef12345678",
		"assetType": "weapon",
		"assetName": "Dragon Slayer Sword",
		"gameTitle": "Fantasy Quest",
		"price":     "0.050",
	}
}

func healthyAuthority() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"jsonrpc": "2.0", "id": 1,
			"result": {"auth": "0x01", "kernel_responses": "0x02", "kernel_params": "0x03"}
		}`))
	}))
}

func TestCreateListingSuccess(t *testing.T) {
	authority := healthyAuthority()
	defer authority.Close()

	backend := &stubBackend{}
	r := newListingTestRouter(t, authority.URL, backend)

	w := postListing(r, validListingBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.CreateListingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.VerificationID)
	assert.NotEmpty(t, resp.TransactionID)
	assert.NotEmpty(t, resp.RiskLevel)
	require.Len(t, backend.sent, 1)
}

func TestCreateListingGeneratesVerificationID(t *testing.T) {
	authority := healthyAuthority()
	defer authority.Close()

	r := newListingTestRouter(t, authority.URL, &stubBackend{})

	body := validListingBody()
	body["verificationId"] = "verify-custom-42"
	w := postListing(r, body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CreateListingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "verify-custom-42", resp.VerificationID)
}

func TestCreateListingValidationFailures(t *testing.T) {
	authority := healthyAuthority()
	defer authority.Close()

	r := newListingTestRouter(t, authority.URL, &stubBackend{})

	tests := []struct {
		name string
		mod  func(map[string]string)
	}{
		{"bad address", func(b map[string]string) { b["address"] = "nope" }},
		{"zero price", func(b map[string]string) { b["price"] = "0" }},
		{"negative price", func(b map[string]string) { b["price"] = "-1" }},
		{"non-numeric price", func(b map[string]string) { b["price"] = "lots" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validListingBody()
			tt.mod(body)

			w := postListing(r, body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.CreateListingResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, string(services.FailureValidation), resp.Code)
		})
	}
}

func TestCreateListingAuthorityUnavailable(t *testing.T) {
	authority := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer authority.Close()

	r := newListingTestRouter(t, authority.URL, &stubBackend{})

	w := postListing(r, validListingBody())
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp dto.CreateListingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(services.FailureAttestationUnavailable), resp.Code)
}

func TestCreateListingAuthorityMalformed(t *testing.T) {
	authority := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "result": {"auth": "0x01"}}`))
	}))
	defer authority.Close()

	r := newListingTestRouter(t, authority.URL, &stubBackend{})

	w := postListing(r, validListingBody())
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp dto.CreateListingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(services.FailureAttestationMalformed), resp.Code)
}

func TestCreateListingLedgerRejection(t *testing.T) {
	authority := healthyAuthority()
	defer authority.Close()

	backend := &stubBackend{sendErr: errors.New("insufficient funds")}
	r := newListingTestRouter(t, authority.URL, backend)

	w := postListing(r, validListingBody())
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.CreateListingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(services.FailureSubmissionRejected), resp.Code)
	assert.Contains(t, resp.Error, "insufficient funds")
}

func TestGetListingWithoutPersistence(t *testing.T) {
	authority := healthyAuthority()
	defer authority.Close()

	r := newListingTestRouter(t, authority.URL, &stubBackend{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings/verify-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
