package services

import (
	"fmt"
	"strings"
)

// Risk tiers, ordered by severity. The modulo tier selection below depends on
// this order.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
	RiskSevere = "Severe"
)

// Assessment status values.
const (
	StatusComplete   = "COMPLETE"
	StatusInProgress = "IN_PROGRESS"
	StatusPending    = "PENDING"
)

var riskLevels = []string{RiskLow, RiskMedium, RiskHigh, RiskSevere}

var exposureCategories = []string{"exchange", "fee", "unnamed service", "defi", "gambling", "mixer"}

// Exposure is one category of value flow attributed to an address.
type Exposure struct {
	Category   string  `json:"category"`
	CategoryID string  `json:"categoryId"`
	Value      float64 `json:"value"`
	ValueUsd   float64 `json:"valueUsd,omitempty"`
}

// RiskAssessment is the immutable result of scoring one address. It is
// created fresh per request and never cached: each call may reflect updated
// intelligence upstream.
type RiskAssessment struct {
	Address                string     `json:"address"`
	Risk                   string     `json:"risk"`
	RiskReason             string     `json:"riskReason,omitempty"`
	AddressType            string     `json:"addressType"`
	AddressIdentifications []Exposure `json:"addressIdentifications"`
	Exposures              []Exposure `json:"exposures"`
	Triggers               []Exposure `json:"triggers"`
	Status                 string     `json:"status"`
}

// RiskScorer derives a deterministic risk classification for a wallet
// address. It is a stateless placeholder for a real intelligence feed: the
// property it guarantees is determinism and total input coverage, not
// accuracy. Address format validation happens before this is called.
type RiskScorer struct{}

// NewRiskScorer creates a risk scorer.
func NewRiskScorer() *RiskScorer {
	return &RiskScorer{}
}

// addressDigest derives a 32-bit signed digest from the address characters
// using a rolling multiply-shift accumulator (acc = acc*31 + charCode,
// wrapped to 32 bits). Identical input always yields an identical digest.
func addressDigest(address string) int32 {
	var acc int32
	for _, ch := range address {
		acc = acc*31 + int32(ch)
	}
	return acc
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Score maps an address to a risk classification and supporting evidence.
// Repeated calls with the same address are byte-identical. It never fails,
// whatever the input.
func (s *RiskScorer) Score(address string) *RiskAssessment {
	digest := addressDigest(address)
	absDigest := abs64(int64(digest))

	risk := riskLevels[absDigest%int64(len(riskLevels))]
	numExposures := int(absDigest%3) + 1

	exposures := make([]Exposure, 0, numExposures)
	for i := 0; i < numExposures; i++ {
		value := float64(abs64(int64(digest)*int64(i+1))%1000000) / 100
		exposures = append(exposures, Exposure{
			Category:   exposureCategories[(absDigest+int64(i))%int64(len(exposureCategories))],
			CategoryID: fmt.Sprintf("cat_%d", (absDigest+int64(i))%1000),
			Value:      value,
			ValueUsd:   value * 2000,
		})
	}

	assessment := &RiskAssessment{
		Address:                address,
		Risk:                   risk,
		AddressType:            "PRIVATE_WALLET",
		AddressIdentifications: []Exposure{},
		Exposures:              exposures,
		Triggers:               []Exposure{},
		Status:                 StatusComplete,
	}

	if risk != RiskLow {
		assessment.RiskReason = fmt.Sprintf("Address has %s risk exposure to %s", strings.ToLower(risk), exposures[0].Category)
	}
	if risk == RiskHigh || risk == RiskSevere {
		assessment.Triggers = []Exposure{exposures[0]}
	}

	return assessment
}
