package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Sentinel errors for the two failure classes of the attestation call.
// Callers must distinguish them: retrying an unreachable authority differs
// from retrying a broken contract.
var (
	// ErrAuthorityUnavailable - the authority could not be reached. Retryable.
	ErrAuthorityUnavailable = errors.New("execution authority unavailable")
	// ErrPayloadMalformed - the authority answered but the kernel payload is
	// structurally invalid. Not retryable without caller intervention.
	ErrPayloadMalformed = errors.New("kernel payload malformed")
)

// KrnlClient talks to the KRNL execution authority over its JSON-RPC
// channel. It holds no state between calls; each call is a single shot with
// no internal retry loop, so backoff policy stays a caller concern.
type KrnlClient struct {
	rpcURL     string
	httpClient *http.Client
}

// NewKrnlClient creates a client for the authority RPC endpoint. The
// configured timeout bounds every attestation call so a slow authority can
// never block a listing attempt indefinitely.
func NewKrnlClient(cfg config.KRNLConfig) *KrnlClient {
	timeout := 60 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &KrnlClient{
		rpcURL: cfg.RPCURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// ExecuteKernels requests an attestation bound to the given request envelope
// and ABI-encoded listing parameters, and normalizes the heterogeneous
// response shape into the canonical envelope.
func (c *KrnlClient) ExecuteKernels(ctx context.Context, entryID, accessToken string, req *types.KernelRequest, encodedParams hexutil.Bytes) (*types.AttestationEnvelope, error) {
	rpcReq := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "krnl_executeKernels",
		Params:  []interface{}{entryID, accessToken, req, encodedParams.String()},
	}

	jsonData, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthorityUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrAuthorityUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: authority returned status %d: %s", ErrAuthorityUnavailable, resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrPayloadMalformed, err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("%w: authority error %d: %s", ErrPayloadMalformed, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if len(rpcResp.Result) == 0 {
		return nil, fmt.Errorf("%w: empty result", ErrPayloadMalformed)
	}

	payload, err := types.ParseAuthorityPayload(rpcResp.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
	}

	envelope, err := payload.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
	}

	return envelope, nil
}
