package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	v1 "github.com/qrpulse/qrpulse/internal/api/v1"
)

// Client talks to the qrpulse HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// PostClick submits one click and returns the status code and raw body.
// A non-2xx status is reported as an error alongside the body.
func (c *Client) PostClick(ctx context.Context, qrID, timestamp string) (int, string, error) {
	payload, err := json.Marshal(v1.ClickRequest{QRID: qrID, Timestamp: timestamp})
	if err != nil {
		return 0, "", fmt.Errorf("error encoding JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze_qr_code", bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, string(body), fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return resp.StatusCode, string(body), nil
}

// View fetches one windowed view, e.g. View(ctx, "/clicks_last_day_by_hour", "id1").
func (c *Client) View(ctx context.Context, path, qrID string) (v1.ClickCounts, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"/"+url.PathEscape(qrID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var counts v1.ClickCounts
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return counts, nil
}
