package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"token-bridge-go/internal/bridge"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

type rpcRequest struct {
	JsonRpc string        `json:"jsonrpc"`
	Id      uint32        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcClient speaks Solana JSON-RPC over a tuned HTTP/2 transport.
type rpcClient struct {
	baseURL    string
	httpClient *http.Client
}

func newRpcClient(baseURL string, timeout time.Duration) (*rpcClient, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("unable to configure http transport: %w", err)
	}

	return &rpcClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}, nil
}

// call performs one JSON-RPC round trip. The request id carries a random
// 32-bit nonce for replay correlation.
func (c *rpcClient) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	reqBody := rpcRequest{
		JsonRpc: "2.0",
		Id:      rand.Uint32(),
		Method:  method,
		Params:  params,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("unable to create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("Solana RPC request failed",
			zap.String("method", method),
			zap.Error(err))
		// Keep the cause in the chain so isTimeout can classify it.
		return nil, fmt.Errorf("%w: %w", bridge.ErrNetworkUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: rpc status %d", bridge.ErrNetworkUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("rpc status %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("unable to decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// isTimeout reports whether the error is a deadline-style failure, which
// the status query maps to IN_PROGRESS rather than a terminal outcome.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
