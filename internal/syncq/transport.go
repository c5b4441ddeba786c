package syncq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPTransport ships actions to a sync server as JSON over POST.
// Any non-2xx response is a retryable failure; the drainer owns the
// backoff policy.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTransport creates a transport posting to endpoint.
func NewHTTPTransport(endpoint string) *HTTPTransport {
	return &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, a Action) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode action %s: %w", a.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	checksum, err := a.PayloadChecksum()
	if err != nil {
		return fmt.Errorf("checksum action %s: %w", a.ID, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Action-ID", a.ID)
	req.Header.Set("X-Action-Checksum", checksum)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send action %s: %w", a.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send action %s: server returned %s", a.ID, resp.Status)
	}
	return nil
}
