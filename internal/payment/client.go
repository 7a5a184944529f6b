// Package payment talks to the external checkout-session collaborator.
// The service's responsibility ends at handing it a validated,
// stock-reserved line list and relaying the session identifier back.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tina-boutique/store-service/internal/domain"
)

type sessionRequest struct {
	LineItems []lineItem `json:"line_items"`
}

type lineItem struct {
	Name string `json:"name"`
	// UnitAmount is the price in currency minor units.
	UnitAmount int64    `json:"unit_amount"`
	Quantity   int      `json:"quantity"`
	Images     []string `json:"images,omitempty"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) CreateSession(ctx context.Context, lines []domain.CartItem) (string, error) {
	req := sessionRequest{LineItems: make([]lineItem, 0, len(lines))}
	for _, line := range lines {
		name := line.Name
		if line.Size != "" || line.Color != "" {
			name = fmt.Sprintf("%s (%s / %s)", line.Name, line.Size, line.Color)
		}
		req.LineItems = append(req.LineItems, lineItem{
			Name:       name,
			UnitAmount: int64(line.Price*100 + 0.5),
			Quantity:   line.Quantity,
			Images:     line.ImageURLs,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to create payment session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment collaborator returned status %d", resp.StatusCode)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("failed to decode session response: %w", err)
	}
	if session.SessionID == "" {
		return "", fmt.Errorf("payment collaborator returned no session id")
	}

	return session.SessionID, nil
}
