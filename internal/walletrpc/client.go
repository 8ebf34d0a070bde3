package walletrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// jsonRPCClient is a minimal JSON-RPC 2.0 client for monero-wallet-rpc. No
// Go client for the Monero wallet RPC surface was present anywhere in the
// retrieved example pack (see DESIGN.md), so the small set of methods the
// engine needs is implemented directly against net/http, in the spirit of
// the typed-RPC-client wrappers the teacher builds over dcrd's JSON-RPC
// surface (github.com/decred/dcrd/rpcclient).
type jsonRPCClient struct {
	endpoint string
	username string
	password string
	http     *http.Client

	mu        sync.Mutex
	challenge *digestChallenge
	nc        int
}

func newJSONRPCClient(endpoint, username, password string) *jsonRPCClient {
	return &jsonRPCClient{
		endpoint: endpoint,
		username: username,
		password: password,
		http:     &http.Client{},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("walletrpc: rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

const rpcPath = "/json_rpc"

// call issues method with params and decodes the result into out (a
// pointer). monero-wallet-rpc authenticates with HTTP Digest (spec.md
// §4.5), so a cached challenge is replayed with an incrementing nonce count
// on subsequent calls, and a fresh 401 challenge is retried once.
func (c *jsonRPCClient) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("walletrpc: encoding request: %w", err)
	}

	doRequest := func(authHeader string) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+rpcPath, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("walletrpc: building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		return c.http.Do(req)
	}

	var authHeader string
	if c.username != "" {
		c.mu.Lock()
		if c.challenge != nil {
			c.nc++
			authHeader = digestAuthorization(c.username, c.password, http.MethodPost, rpcPath, c.challenge, c.nc)
		}
		c.mu.Unlock()
	}

	resp, err := doRequest(authHeader)
	if err != nil {
		return fmt.Errorf("walletrpc: calling %s: %w", method, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.username != "" {
		resp.Body.Close()

		challenge, err := parseDigestChallenge(resp.Header.Get("WWW-Authenticate"))
		if err != nil {
			return fmt.Errorf("walletrpc: calling %s: %w", method, err)
		}

		c.mu.Lock()
		c.challenge = challenge
		c.nc = 1
		authHeader = digestAuthorization(c.username, c.password, http.MethodPost, rpcPath, challenge, c.nc)
		c.mu.Unlock()

		resp, err = doRequest(authHeader)
		if err != nil {
			return fmt.Errorf("walletrpc: calling %s: %w", method, err)
		}
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("walletrpc: decoding response to %s: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("walletrpc: decoding result of %s: %w", method, err)
	}
	return nil
}
