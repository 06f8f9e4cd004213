package types

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// KernelParameters is the per-kernel parameter envelope the execution
// authority expects. For the wallet-screening kernel only body.address is
// populated; the other slots are sent empty but must be present.
type KernelParameters struct {
	Header map[string]interface{} `json:"header"`
	Body   map[string]interface{} `json:"body"`
	Query  map[string]interface{} `json:"query"`
	Path   map[string]interface{} `json:"path"`
}

// KernelCall wraps the parameters for one kernel invocation.
type KernelCall struct {
	Parameters KernelParameters `json:"parameters"`
}

// KernelRequest is the request envelope sent to the execution authority.
// The kernel payload is keyed by kernel ID.
type KernelRequest struct {
	SenderAddress string                `json:"senderAddress"`
	KernelPayload map[string]KernelCall `json:"kernelPayload"`
}

// NewWalletScreeningRequest builds the request envelope for the
// wallet-screening kernel, carrying the address in the body slot.
func NewWalletScreeningRequest(kernelID, address string) *KernelRequest {
	return &KernelRequest{
		SenderAddress: address,
		KernelPayload: map[string]KernelCall{
			kernelID: {
				Parameters: KernelParameters{
					Header: map[string]interface{}{},
					Body:   map[string]interface{}{"address": address},
					Query:  map[string]interface{}{},
					Path:   map[string]interface{}{},
				},
			},
		},
	}
}

// AuthorityPayload is the raw kernel payload as returned by the execution
// authority. The authority emits snake_case keys while some SDK versions
// emit camelCase; both are accepted and resolved once by Normalize.
type AuthorityPayload struct {
	Auth                 string `json:"auth"`
	KernelResponses      string `json:"kernelResponses"`
	KernelParams         string `json:"kernelParams"`
	KernelResponsesSnake string `json:"kernel_responses"`
	KernelParamsSnake    string `json:"kernel_params"`
}

// AttestationEnvelope is the canonical, authority-issued attestation bound to
// one set of listing parameters. The three fields are passed through
// byte-for-byte; the receiving contract is the sole validator of their
// authenticity.
type AttestationEnvelope struct {
	AuthProof        hexutil.Bytes `json:"auth"`
	KernelResponses  hexutil.Bytes `json:"kernelResponses"`
	KernelParameters hexutil.Bytes `json:"kernelParams"`
}

// Normalize resolves the two accepted key conventions into the canonical
// envelope. It returns an error naming the first missing field; callers wrap
// it with the appropriate failure kind.
func (p *AuthorityPayload) Normalize() (*AttestationEnvelope, error) {
	responses := p.KernelResponsesSnake
	if responses == "" {
		responses = p.KernelResponses
	}
	params := p.KernelParamsSnake
	if params == "" {
		params = p.KernelParams
	}

	if p.Auth == "" {
		return nil, fmt.Errorf("kernel payload is missing auth proof")
	}
	if responses == "" {
		return nil, fmt.Errorf("kernel payload is missing kernel responses")
	}
	if params == "" {
		return nil, fmt.Errorf("kernel payload is missing kernel params")
	}

	return &AttestationEnvelope{
		AuthProof:        common.FromHex(p.Auth),
		KernelResponses:  common.FromHex(responses),
		KernelParameters: common.FromHex(params),
	}, nil
}

// ParseAuthorityPayload decodes a raw authority response body into the
// dual-convention payload without reinterpreting the opaque fields.
func ParseAuthorityPayload(raw json.RawMessage) (*AuthorityPayload, error) {
	var payload AuthorityPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode kernel payload: %w", err)
	}
	return &payload, nil
}
