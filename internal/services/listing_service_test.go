package services

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// fakeBackend is an in-memory ChainBackend for pipeline tests.
type fakeBackend struct {
	mu sync.Mutex

	chainID  *big.Int
	nonce    uint64
	gasPrice *big.Int

	sendErr       error
	receiptStatus uint64
	receiptDelay  int // receipt polls to swallow before answering

	sent []*ethtypes.Transaction
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:       big.NewInt(11155111),
		nonce:         7,
		gasPrice:      big.NewInt(2000000000),
		receiptStatus: ethtypes.ReceiptStatusSuccessful,
	}
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return b.chainID, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return b.gasPrice, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 || b.sent[len(b.sent)-1].Hash() != txHash {
		return nil, errors.New("not found")
	}
	if b.receiptDelay > 0 {
		b.receiptDelay--
		return nil, errors.New("not found")
	}
	return &ethtypes.Receipt{
		Status:      b.receiptStatus,
		TxHash:      txHash,
		BlockNumber: big.NewInt(42),
		GasUsed:     210000,
	}, nil
}

func newTestListingService(t *testing.T, backend ChainBackend) *ListingService {
	t.Helper()
	svc, err := NewListingService(backend, config.BlockchainConfig{
		MarketplaceContract: "0x9999999999999999999999999999999999999999",
		GasLimit:            800000,
	})
	require.NoError(t, err)
	svc.receiptPollInterval = 10 * time.Millisecond
	return svc
}

func newTestSigner(t *testing.T) Signer {
	t.Helper()
	signer, err := NewPrivateKeySigner(testPrivateKey)
	require.NoError(t, err)
	return signer
}

func testEnvelope() *types.AttestationEnvelope {
	return &types.AttestationEnvelope{
		AuthProof:        []byte{0x01, 0x02},
		KernelResponses:  []byte{0x03, 0x04},
		KernelParameters: []byte{0x05, 0x06},
	}
}

func TestSubmitSuccess(t *testing.T) {
	backend := newFakeBackend()
	svc := newTestListingService(t, backend)

	outcome, err := svc.Submit(context.Background(), testEnvelope(), validIntent(), newTestSigner(t))
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.NotEmpty(t, outcome.TransactionID)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, common.HexToAddress("0x9999999999999999999999999999999999999999"), *tx.To())
	assert.Equal(t, outcome.TransactionID, tx.Hash().Hex())
}

func TestSubmitDelayedReceipt(t *testing.T) {
	backend := newFakeBackend()
	backend.receiptDelay = 3
	svc := newTestListingService(t, backend)

	outcome, err := svc.Submit(context.Background(), testEnvelope(), validIntent(), newTestSigner(t))
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestSubmitIncompleteEnvelope(t *testing.T) {
	svc := newTestListingService(t, newFakeBackend())
	signer := newTestSigner(t)

	tests := []struct {
		name     string
		envelope *types.AttestationEnvelope
	}{
		{"nil envelope", nil},
		{"missing auth", &types.AttestationEnvelope{KernelResponses: []byte{1}, KernelParameters: []byte{1}}},
		{"missing responses", &types.AttestationEnvelope{AuthProof: []byte{1}, KernelParameters: []byte{1}}},
		{"missing params", &types.AttestationEnvelope{AuthProof: []byte{1}, KernelResponses: []byte{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.envelope, validIntent(), signer)
			require.Error(t, err)
			kind, ok := FailureKindOf(err)
			assert.True(t, ok)
			assert.Equal(t, FailureEnvelopeIncomplete, kind)
		})
	}
}

func TestSubmitLedgerRejection(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("insufficient funds for gas * price + value")
	svc := newTestListingService(t, backend)

	_, err := svc.Submit(context.Background(), testEnvelope(), validIntent(), newTestSigner(t))
	require.Error(t, err)

	kind, ok := FailureKindOf(err)
	assert.True(t, ok)
	assert.Equal(t, FailureSubmissionRejected, kind)
	// The ledger-reported message must be preserved for the caller.
	assert.Contains(t, DetailOf(err), "insufficient funds")
}

func TestSubmitReverted(t *testing.T) {
	backend := newFakeBackend()
	backend.receiptStatus = ethtypes.ReceiptStatusFailed
	svc := newTestListingService(t, backend)

	_, err := svc.Submit(context.Background(), testEnvelope(), validIntent(), newTestSigner(t))
	require.Error(t, err)

	kind, _ := FailureKindOf(err)
	assert.Equal(t, FailureSubmissionRejected, kind)
	assert.Contains(t, DetailOf(err), "reverted")
}

func TestSubmitConfirmationTimeout(t *testing.T) {
	backend := newFakeBackend()
	backend.receiptDelay = 1 << 30 // never answer
	svc := newTestListingService(t, backend)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	_, err := svc.Submit(ctx, testEnvelope(), validIntent(), newTestSigner(t))
	require.Error(t, err)

	kind, _ := FailureKindOf(err)
	assert.Equal(t, FailureConfirmationTimeout, kind)

	// The timeout detail carries the broadcast hash so the caller can check
	// inclusion out-of-band before resubmitting.
	require.Len(t, backend.sent, 1)
	assert.Contains(t, DetailOf(err), backend.sent[0].Hash().Hex())
}

func TestSubmitNilSigner(t *testing.T) {
	svc := newTestListingService(t, newFakeBackend())

	_, err := svc.Submit(context.Background(), testEnvelope(), validIntent(), nil)
	require.Error(t, err)

	kind, _ := FailureKindOf(err)
	assert.Equal(t, FailureSubmissionRejected, kind)
}

func TestPackCreateListing(t *testing.T) {
	svc := newTestListingService(t, newFakeBackend())
	intent := validIntent()
	wei, err := intent.PriceWei()
	require.NoError(t, err)

	calldata, err := svc.PackCreateListing(testEnvelope(), intent, wei)
	require.NoError(t, err)

	// First four bytes select createListing.
	method, err := svc.parsedABI.MethodById(calldata[:4])
	require.NoError(t, err)
	assert.Equal(t, "createListing", method.Name)
}

func TestOutcomeFromError(t *testing.T) {
	outcome := OutcomeFromError(NewGatewayError(FailureConfirmationTimeout, "tx 0xabc unconfirmed", nil))
	assert.False(t, outcome.Success)
	assert.Equal(t, FailureConfirmationTimeout, outcome.FailureKind)
	assert.Equal(t, "tx 0xabc unconfirmed", outcome.Detail)

	outcome = OutcomeFromError(errors.New("plain"))
	assert.Equal(t, FailureSubmissionRejected, outcome.FailureKind)
}
