package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"marketplace-backend/internal/clients"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/types"
	"marketplace-backend/internal/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// mustType is a helper function to create an abi.Type from a string
func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("invalid type: %s: %v", t, err))
	}
	return typ
}

// listingParamsArguments mirrors the contract's createListing parameter list:
// (string verificationId, string assetType, string assetName,
//  string gameTitle, uint256 price).
var listingParamsArguments = abi.Arguments{
	{Type: mustType("string")},
	{Type: mustType("string")},
	{Type: mustType("string")},
	{Type: mustType("string")},
	{Type: mustType("uint256")},
}

// EncodeListingParams ABI-encodes the listing fields the attestation is bound
// to. The same encoding feeds both the authority request and, via the
// contract's own verification, the on-chain call.
func EncodeListingParams(intent *ListingIntent) (hexutil.Bytes, error) {
	priceWei, err := intent.PriceWei()
	if err != nil {
		return nil, err
	}
	encoded, err := listingParamsArguments.Pack(
		intent.VerificationID,
		intent.AssetType,
		intent.AssetName,
		intent.GameTitle,
		priceWei,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing params: %w", err)
	}
	return encoded, nil
}

// AttestationService shapes listing parameters into an authority request and
// executes it. It holds only immutable configuration; concurrent listing
// attempts share nothing mutable.
type AttestationService struct {
	krnlClient  *clients.KrnlClient
	entryID     string
	accessToken string
	kernelID    string
}

// NewAttestationService creates the attestation service. The entry ID and
// access token were already checked by the startup gate; they are never
// re-validated per call.
func NewAttestationService(krnlClient *clients.KrnlClient, cfg config.KRNLConfig) *AttestationService {
	return &AttestationService{
		krnlClient:  krnlClient,
		entryID:     cfg.EntryID,
		accessToken: cfg.AccessToken,
		kernelID:    cfg.KernelID,
	}
}

// BuildRequest validates the caller input and produces the request envelope
// plus the ABI-encoded parameter blob. Any validation failure happens here,
// before the network is touched.
func (s *AttestationService) BuildRequest(address string, intent *ListingIntent) (*types.KernelRequest, hexutil.Bytes, error) {
	if !utils.IsWalletAddress(address) {
		return nil, nil, NewGatewayError(FailureValidation, fmt.Sprintf("invalid wallet address format: %s", address), nil)
	}
	if intent == nil {
		return nil, nil, NewGatewayError(FailureValidation, "listing details are required", nil)
	}
	if err := intent.Validate(); err != nil {
		return nil, nil, err
	}

	encodedParams, err := EncodeListingParams(intent)
	if err != nil {
		return nil, nil, err
	}

	return types.NewWalletScreeningRequest(s.kernelID, address), encodedParams, nil
}

// RequestAttestation builds the request and executes it against the
// execution authority, returning the canonical attestation envelope bound to
// exactly these listing parameters.
func (s *AttestationService) RequestAttestation(ctx context.Context, address string, intent *ListingIntent) (*types.AttestationEnvelope, error) {
	req, encodedParams, err := s.BuildRequest(address, intent)
	if err != nil {
		return nil, err
	}

	log.Printf("🔮 [Attestation] Requesting kernel execution: kernel=%s, address=%s, verificationId=%s",
		s.kernelID, address, intent.VerificationID)

	start := time.Now()
	envelope, err := s.krnlClient.ExecuteKernels(ctx, s.entryID, s.accessToken, req, encodedParams)
	metrics.AttestationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, clients.ErrAuthorityUnavailable):
			metrics.AttestationRequests.WithLabelValues("unavailable").Inc()
			return nil, NewGatewayError(FailureAttestationUnavailable, "execution authority unreachable", err)
		case errors.Is(err, clients.ErrPayloadMalformed):
			metrics.AttestationRequests.WithLabelValues("malformed").Inc()
			return nil, NewGatewayError(FailureAttestationMalformed, "execution authority returned an invalid kernel payload", err)
		default:
			metrics.AttestationRequests.WithLabelValues("error").Inc()
			return nil, NewGatewayError(FailureAttestationUnavailable, "attestation request failed", err)
		}
	}

	metrics.AttestationRequests.WithLabelValues("success").Inc()
	log.Printf("✅ [Attestation] Kernel payload received: auth=%d bytes, responses=%d bytes, params=%d bytes",
		len(envelope.AuthProof), len(envelope.KernelResponses), len(envelope.KernelParameters))

	return envelope, nil
}
