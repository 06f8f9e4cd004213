package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/events"
	"marketplace-backend/internal/models"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/services"
	"marketplace-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// failureStatus maps every terminal failure kind to an HTTP status. Retryable
// kinds land on statuses callers conventionally retry (502, 504); the rest do
// not.
var failureStatus = map[services.FailureKind]int{
	services.FailureValidation:             http.StatusBadRequest,
	services.FailureAttestationUnavailable: http.StatusBadGateway,
	services.FailureAttestationMalformed:   http.StatusBadGateway,
	services.FailureEnvelopeIncomplete:     http.StatusInternalServerError,
	services.FailureSubmissionRejected:     http.StatusUnprocessableEntity,
	services.FailureConfirmationTimeout:    http.StatusGatewayTimeout,
}

// ListingHandler drives the full attestation-gated listing flow: validate,
// screen, attest, submit, record.
type ListingHandler struct {
	attestationService *services.AttestationService
	listingService     *services.ListingService
	scorer             *services.RiskScorer
	signer             services.Signer
	listingRepo        repository.ListingRepository // nil when persistence is disabled
	publisher          *events.Publisher

	attestationTimeout  time.Duration
	confirmationTimeout time.Duration
}

// NewListingHandler wires the listing flow. listingRepo may be nil.
func NewListingHandler(
	attestationService *services.AttestationService,
	listingService *services.ListingService,
	scorer *services.RiskScorer,
	signer services.Signer,
	listingRepo repository.ListingRepository,
	publisher *events.Publisher,
	attestationTimeout time.Duration,
) *ListingHandler {
	return &ListingHandler{
		attestationService:  attestationService,
		listingService:      listingService,
		scorer:              scorer,
		signer:              signer,
		listingRepo:         listingRepo,
		publisher:           publisher,
		attestationTimeout:  attestationTimeout,
		confirmationTimeout: 120 * time.Second,
	}
}

// CreateListingHandler handles POST /api/listings
func (h *ListingHandler) CreateListingHandler(c *gin.Context) {
	requestID := uuid.New().String()

	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.CreateListingResponse{
			Success: false,
			Error:   "Invalid request: " + err.Error(),
			Code:    string(services.FailureValidation),
		})
		return
	}

	address := utils.NormalizeWalletAddress(req.Address)
	if !utils.IsWalletAddress(address) {
		c.JSON(http.StatusBadRequest, dto.CreateListingResponse{
			Success: false,
			Error:   "Invalid wallet address format",
			Code:    string(services.FailureValidation),
		})
		return
	}

	verificationID := req.VerificationID
	if verificationID == "" {
		verificationID = services.GenerateVerificationID()
	}

	intent := &services.ListingIntent{
		VerificationID: verificationID,
		AssetType:      req.AssetType,
		AssetName:      req.AssetName,
		GameTitle:      req.GameTitle,
		Price:          req.Price,
	}
	if err := intent.Validate(); err != nil {
		h.respondFailure(c, verificationID, address, err)
		return
	}

	// Screening runs before the authority call so the recorded risk level
	// reflects what the gateway saw at submission time.
	assessment := h.scorer.Score(address)

	log.Printf("📋 [%s] Listing submission started: verificationId=%s, seller=%s, risk=%s",
		requestID, verificationID, address, assessment.Risk)

	h.recordPending(intent, address, assessment.Risk)

	attestCtx, cancel := context.WithTimeout(c.Request.Context(), h.attestationTimeout)
	envelope, err := h.attestationService.RequestAttestation(attestCtx, address, intent)
	cancel()
	if err != nil {
		h.recordFailure(verificationID, err)
		h.publisher.ListingFailed(verificationID, address, err)
		h.respondFailure(c, verificationID, address, err)
		return
	}

	submitCtx, cancel := context.WithTimeout(c.Request.Context(), h.confirmationTimeout)
	defer cancel()

	outcome, err := h.listingService.Submit(submitCtx, envelope, intent, h.signer)
	if err != nil {
		h.recordFailure(verificationID, err)
		h.publisher.ListingFailed(verificationID, address, err)
		h.respondFailure(c, verificationID, address, err)
		return
	}

	h.recordSuccess(verificationID, outcome.TransactionID)

	priceWei, _ := intent.PriceWei()
	h.publisher.ListingSubmitted(&events.ListingSubmittedEvent{
		VerificationID: verificationID,
		SellerAddress:  address,
		AssetName:      intent.AssetName,
		GameTitle:      intent.GameTitle,
		PriceWei:       priceWei.String(),
		TransactionID:  outcome.TransactionID,
		RiskLevel:      assessment.Risk,
		Timestamp:      time.Now().UTC(),
	})

	log.Printf("✅ [%s] Listing confirmed: verificationId=%s, tx=%s", requestID, verificationID, outcome.TransactionID)

	c.JSON(http.StatusOK, dto.CreateListingResponse{
		Success:        true,
		VerificationID: verificationID,
		TransactionID:  outcome.TransactionID,
		RiskLevel:      assessment.Risk,
	})
}

// GetListingHandler handles GET /api/listings/:verificationId
func (h *ListingHandler) GetListingHandler(c *gin.Context) {
	if h.listingRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Listing records are not available: persistence is not configured",
		})
		return
	}

	verificationID := c.Param("verificationId")
	record, err := h.listingRepo.GetByVerificationID(verificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Listing not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query listing record",
		})
		return
	}

	c.JSON(http.StatusOK, record)
}

// AdminListListingsHandler handles GET /api/admin/listings
func (h *ListingHandler) AdminListListingsHandler(c *gin.Context) {
	if h.listingRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Listing records are not available: persistence is not configured",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.listingRepo.ListRecent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query listing records",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": records,
		"count":    len(records),
	})
}

func (h *ListingHandler) respondFailure(c *gin.Context, verificationID, address string, err error) {
	kind, ok := services.FailureKindOf(err)
	if !ok {
		kind = services.FailureSubmissionRejected
	}
	status, ok := failureStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	log.Printf("❌ [Listing] Submission failed: verificationId=%s, seller=%s, kind=%s, detail=%s",
		verificationID, address, kind, services.DetailOf(err))

	c.JSON(status, dto.CreateListingResponse{
		Success:        false,
		VerificationID: verificationID,
		Error:          services.DetailOf(err),
		Code:           string(kind),
	})
}

func (h *ListingHandler) recordPending(intent *services.ListingIntent, address, riskLevel string) {
	if h.listingRepo == nil {
		return
	}
	priceWei, err := intent.PriceWei()
	if err != nil {
		return
	}
	record := &models.ListingRecord{
		ID:             uuid.New().String(),
		VerificationID: intent.VerificationID,
		SellerAddress:  address,
		AssetType:      intent.AssetType,
		AssetName:      intent.AssetName,
		GameTitle:      intent.GameTitle,
		PriceWei:       priceWei.String(),
		RiskLevel:      riskLevel,
		Status:         models.ListingStatusPending,
	}
	if err := h.listingRepo.Create(record); err != nil {
		log.Printf("⚠️ Failed to persist listing record %s: %v", intent.VerificationID, err)
	}
}

func (h *ListingHandler) recordSuccess(verificationID, txHash string) {
	if h.listingRepo == nil {
		return
	}
	if err := h.listingRepo.UpdateOutcome(verificationID, models.ListingStatusConfirmed, txHash, "", ""); err != nil {
		log.Printf("⚠️ Failed to update listing record %s: %v", verificationID, err)
	}
}

func (h *ListingHandler) recordFailure(verificationID string, failure error) {
	if h.listingRepo == nil {
		return
	}
	kind, _ := services.FailureKindOf(failure)
	txHash := ""
	// A confirmation timeout still carries the broadcast hash in its detail;
	// the record keeps the typed kind and detail for out-of-band checks.
	if err := h.listingRepo.UpdateOutcome(verificationID, models.ListingStatusFailed, txHash, string(kind), services.DetailOf(failure)); err != nil {
		log.Printf("⚠️ Failed to update listing record %s: %v", verificationID, err)
	}
}
