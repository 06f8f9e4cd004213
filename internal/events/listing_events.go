package events

import (
	"log"
	"time"

	"marketplace-backend/internal/clients"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/services"
)

// NATS subjects for listing lifecycle events.
const (
	SubjectListingSubmitted = "marketplace.listing.submitted"
	SubjectListingFailed    = "marketplace.listing.failed"
)

// ListingSubmittedEvent is published after a listing transaction confirms.
type ListingSubmittedEvent struct {
	VerificationID string    `json:"verificationId"`
	SellerAddress  string    `json:"sellerAddress"`
	AssetName      string    `json:"assetName"`
	GameTitle      string    `json:"gameTitle"`
	PriceWei       string    `json:"priceWei"`
	TransactionID  string    `json:"transactionId"`
	RiskLevel      string    `json:"riskLevel"`
	Timestamp      time.Time `json:"timestamp"`
}

// ListingFailedEvent is published when a submission terminates in a typed
// failure.
type ListingFailedEvent struct {
	VerificationID string    `json:"verificationId"`
	SellerAddress  string    `json:"sellerAddress"`
	FailureKind    string    `json:"failureKind"`
	Detail         string    `json:"detail"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher emits listing lifecycle events. Publication is best-effort: a
// publish failure is logged and never propagated to the submission path.
type Publisher struct {
	client *clients.NATSClient
}

// NewPublisher wraps a connected NATS client. A nil client yields a no-op
// publisher, used when NATS is not configured.
func NewPublisher(client *clients.NATSClient) *Publisher {
	return &Publisher{client: client}
}

// ListingSubmitted publishes a confirmed listing event.
func (p *Publisher) ListingSubmitted(event *ListingSubmittedEvent) {
	p.publish(SubjectListingSubmitted, event)
}

// ListingFailed publishes a terminal failure event.
func (p *Publisher) ListingFailed(verificationID, sellerAddress string, err error) {
	kind, _ := services.FailureKindOf(err)
	p.publish(SubjectListingFailed, &ListingFailedEvent{
		VerificationID: verificationID,
		SellerAddress:  sellerAddress,
		FailureKind:    string(kind),
		Detail:         services.DetailOf(err),
		Timestamp:      time.Now().UTC(),
	})
}

func (p *Publisher) publish(subject string, event interface{}) {
	if p.client == nil {
		return
	}
	if err := p.client.Publish(subject, event); err != nil {
		log.Printf("⚠️ Failed to publish %s event: %v", subject, err)
		return
	}
	metrics.NATSEventsPublished.WithLabelValues(subject).Inc()
}
