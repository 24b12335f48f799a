package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"founderkit-backend/internal/models"
)

// Client calls the checkout backend's payment intent endpoint over HTTP.
// It implements IntentCreator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for the given backend base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// CreatePaymentIntent posts the purchase request and returns the opaque
// client secret untouched.
func (c *Client) CreatePaymentIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/create-payment-intent", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody models.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil && errBody.Message != "" {
			return nil, fmt.Errorf("%s", errBody.Message)
		}
		return nil, fmt.Errorf("payment intent request failed with status %d", resp.StatusCode)
	}

	var out models.PaymentIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ClientSecret == "" || out.PaymentIntentID == "" {
		return nil, fmt.Errorf("payment intent response is incomplete")
	}

	return &out, nil
}
