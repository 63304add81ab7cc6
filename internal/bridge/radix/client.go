package radix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"token-bridge-go/internal/bridge"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// gatewayClient speaks the Radix gateway REST API. Every endpoint is a
// JSON POST; errors come back as {code, message} bodies.
type gatewayClient struct {
	baseURL    string
	network    string
	httpClient *http.Client
}

type gatewayError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newGatewayClient(baseURL, network string, timeout time.Duration) (*gatewayClient, error) {
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

	return &gatewayClient{
		baseURL: baseURL,
		network: network,
		httpClient: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}, nil
}

// post sends one gateway request and decodes the response into out.
// A 404 surfaces as notFoundErr so callers can map it to a status value.
var notFoundErr = errors.New("gateway entity not found")

func (c *gatewayClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("unable to marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("unable to create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("Radix gateway request failed",
			zap.String("path", path),
			zap.Error(err))
		// Keep the cause in the chain so isTimeout can classify it.
		return fmt.Errorf("%w: %w", bridge.ErrNetworkUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return notFoundErr
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: gateway status %d", bridge.ErrNetworkUnavailable, resp.StatusCode)
	default:
		raw, _ := io.ReadAll(resp.Body)
		var gwErr gatewayError
		if json.Unmarshal(raw, &gwErr) == nil && gwErr.Message != "" {
			return fmt.Errorf("gateway error %d: %s", gwErr.Code, gwErr.Message)
		}
		return fmt.Errorf("gateway status %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode gateway response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
