package services

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// marketplaceABI covers the single contract entry point the gateway calls.
// The payload tuple mirrors the contract's KrnlPayload struct; the contract
// itself validates the attestation before mutating listing state.
const marketplaceABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "bytes", "name": "auth", "type": "bytes"},
					{"internalType": "bytes", "name": "kernelResponses", "type": "bytes"},
					{"internalType": "bytes", "name": "kernelParams", "type": "bytes"}
				],
				"internalType": "struct KrnlPayload",
				"name": "payload",
				"type": "tuple"
			},
			{"internalType": "string", "name": "verificationId", "type": "string"},
			{"internalType": "string", "name": "assetType", "type": "string"},
			{"internalType": "string", "name": "assetName", "type": "string"},
			{"internalType": "string", "name": "gameTitle", "type": "string"},
			{"internalType": "uint256", "name": "price", "type": "uint256"}
		],
		"name": "createListing",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// krnlPayloadArg matches the ABI tuple component names for packing.
type krnlPayloadArg struct {
	Auth            []byte
	KernelResponses []byte
	KernelParams    []byte
}

// ChainBackend is the slice of the ledger client the pipeline needs.
// *ethclient.Client satisfies it.
type ChainBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// SubmissionOutcome is the terminal result of one listing submission.
// Produced once per call; the pipeline never retries on its own.
type SubmissionOutcome struct {
	Success       bool        `json:"success"`
	TransactionID string      `json:"transactionId,omitempty"`
	FailureKind   FailureKind `json:"failureKind,omitempty"`
	Detail        string      `json:"detail,omitempty"`
}

// OutcomeFromError converts a gateway failure into a terminal outcome.
func OutcomeFromError(err error) *SubmissionOutcome {
	kind, ok := FailureKindOf(err)
	if !ok {
		kind = FailureSubmissionRejected
	}
	return &SubmissionOutcome{
		Success:     false,
		FailureKind: kind,
		Detail:      DetailOf(err),
	}
}

// ListingService submits attested listings to the marketplace contract. It
// retains no cross-call state: concurrent listing attempts are independent.
type ListingService struct {
	backend   ChainBackend
	contract  common.Address
	gasLimit  uint64
	gasPrice  *big.Int // nil means suggest from the node per call
	parsedABI abi.ABI

	receiptPollInterval time.Duration
}

// NewListingService creates the submission pipeline over an already
// constructed ledger client. The contract address was checked by the startup
// gate.
func NewListingService(backend ChainBackend, cfg config.BlockchainConfig) (*ListingService, error) {
	parsedABI, err := abi.JSON(strings.NewReader(marketplaceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse marketplace ABI: %w", err)
	}

	var gasPrice *big.Int
	if cfg.GasPrice != "" {
		price, ok := new(big.Int).SetString(cfg.GasPrice, 10)
		if !ok {
			return nil, fmt.Errorf("invalid gas price: %s", cfg.GasPrice)
		}
		gasPrice = price
	}

	return &ListingService{
		backend:             backend,
		contract:            common.HexToAddress(cfg.MarketplaceContract),
		gasLimit:            cfg.GasLimit,
		gasPrice:            gasPrice,
		parsedABI:           parsedABI,
		receiptPollInterval: 3 * time.Second,
	}, nil
}

// PackCreateListing encodes the full contract call: attestation envelope plus
// the listing fields. priceWei is recomputed by the caller from the same
// intent the attestation was built from.
func (s *ListingService) PackCreateListing(envelope *types.AttestationEnvelope, intent *ListingIntent, priceWei *big.Int) ([]byte, error) {
	payload := krnlPayloadArg{
		Auth:            envelope.AuthProof,
		KernelResponses: envelope.KernelResponses,
		KernelParams:    envelope.KernelParameters,
	}
	data, err := s.parsedABI.Pack("createListing",
		payload,
		intent.VerificationID,
		intent.AssetType,
		intent.AssetName,
		intent.GameTitle,
		priceWei,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack createListing: %w", err)
	}
	return data, nil
}

// Submit runs the five pipeline steps: normalize check, price recomputation,
// broadcast, confirmation wait, outcome. Every failure is typed; either all
// steps complete or a single failure is returned. SubmissionRejected means
// the broadcast provably did not happen; ConfirmationTimeout means inclusion
// is unknown and the caller must check status out-of-band before resubmitting.
// The caller's ctx deadline bounds the confirmation wait.
func (s *ListingService) Submit(ctx context.Context, envelope *types.AttestationEnvelope, intent *ListingIntent, signer Signer) (*SubmissionOutcome, error) {
	// Step 1: the envelope arrives normalized from the attestation client, but
	// an incomplete one here is a bug and must surface loudly, not reach the
	// ledger.
	if err := checkEnvelope(envelope); err != nil {
		return nil, err
	}

	// Step 2: recompute the minor-unit price from the same intent the
	// attestation was built from. The value submitted on-chain must be
	// bit-identical to the attested one or the contract rejects the call;
	// recomputing is a deliberate consistency check.
	priceWei, err := intent.PriceWei()
	if err != nil {
		return nil, err
	}

	calldata, err := s.PackCreateListing(envelope, intent, priceWei)
	if err != nil {
		return nil, NewGatewayError(FailureSubmissionRejected, "failed to encode contract call", err)
	}

	// Step 3: exactly one transaction through the supplied signer.
	signedTx, err := s.broadcast(ctx, calldata, signer)
	if err != nil {
		metrics.ListingSubmissions.WithLabelValues("rejected").Inc()
		return nil, err
	}
	txHash := signedTx.Hash()

	log.Printf("🚀 [Listing] Transaction broadcast: hash=%s, verificationId=%s", txHash.Hex(), intent.VerificationID)

	// Step 4: await one confirmation, bounded by the caller's deadline.
	start := time.Now()
	receipt, err := s.waitForReceipt(ctx, txHash)
	if err != nil {
		metrics.ListingSubmissions.WithLabelValues("timeout").Inc()
		// The broadcast hash is surfaced so the caller can check status
		// manually before any resubmission.
		detail := fmt.Sprintf("transaction %s broadcast but unconfirmed within deadline", txHash.Hex())
		return nil, NewGatewayError(FailureConfirmationTimeout, detail, err)
	}
	metrics.ConfirmationDuration.Observe(time.Since(start).Seconds())

	if receipt.Status == ethtypes.ReceiptStatusFailed {
		metrics.ListingSubmissions.WithLabelValues("reverted").Inc()
		detail := fmt.Sprintf("transaction %s reverted in block %d", txHash.Hex(), receipt.BlockNumber.Uint64())
		return nil, NewGatewayError(FailureSubmissionRejected, detail, nil)
	}

	metrics.ListingSubmissions.WithLabelValues("success").Inc()
	log.Printf("✅ [Listing] Transaction confirmed: hash=%s, block=%d, gasUsed=%d",
		txHash.Hex(), receipt.BlockNumber.Uint64(), receipt.GasUsed)

	// Step 5.
	return &SubmissionOutcome{
		Success:       true,
		TransactionID: txHash.Hex(),
	}, nil
}

func checkEnvelope(envelope *types.AttestationEnvelope) error {
	if envelope == nil {
		return NewGatewayError(FailureEnvelopeIncomplete, "attestation envelope is nil", nil)
	}
	if len(envelope.AuthProof) == 0 {
		return NewGatewayError(FailureEnvelopeIncomplete, "attestation envelope is missing auth proof", nil)
	}
	if len(envelope.KernelResponses) == 0 {
		return NewGatewayError(FailureEnvelopeIncomplete, "attestation envelope is missing kernel responses", nil)
	}
	if len(envelope.KernelParameters) == 0 {
		return NewGatewayError(FailureEnvelopeIncomplete, "attestation envelope is missing kernel params", nil)
	}
	return nil
}

// broadcast builds, signs, and sends the transaction. Every failure here
// means inclusion provably did not start.
func (s *ListingService) broadcast(ctx context.Context, calldata []byte, signer Signer) (*ethtypes.Transaction, error) {
	if signer == nil {
		return nil, NewGatewayError(FailureSubmissionRejected, "signer is required", nil)
	}
	from := signer.Address()

	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, NewGatewayError(FailureSubmissionRejected, "failed to query chain ID", err)
	}

	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, NewGatewayError(FailureSubmissionRejected, "failed to query account nonce", err)
	}

	gasPrice := s.gasPrice
	if gasPrice == nil {
		gasPrice, err = s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, NewGatewayError(FailureSubmissionRejected, "failed to suggest gas price", err)
		}
	}

	tx := ethtypes.NewTransaction(nonce, s.contract, big.NewInt(0), s.gasLimit, gasPrice, calldata)

	signedTx, err := signer.SignTx(tx, chainID)
	if err != nil {
		return nil, NewGatewayError(FailureSubmissionRejected, "signer rejected the transaction", err)
	}

	if err := s.backend.SendTransaction(ctx, signedTx); err != nil {
		// The ledger-reported message is preserved verbatim: insufficient
		// funds, nonce conflict, and envelope rejection all surface here.
		return nil, NewGatewayError(FailureSubmissionRejected, err.Error(), err)
	}

	return signedTx, nil
}

// waitForReceipt polls for the transaction receipt until the caller's
// deadline expires. Resubmitting an already-broadcast transaction risks a
// duplicate spend attempt, so a timeout is reported, never retried here.
func (s *ListingService) waitForReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(s.receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
