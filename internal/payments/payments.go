package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lumeva/creditcore/pkg/clients"
	"go.uber.org/zap"
)

const (
	maxRetries    = 3
	retryInterval = time.Second * 1
)

// CheckoutSession is the processor's hosted purchase page for a credit pack.
type CheckoutSession struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

// Transfer is an outbound funds transfer to an earner's payout account.
type Transfer struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type CheckoutRequest struct {
	UserID      int64  `json:"user_id"`
	ProductID   string `json:"product_id"`
	Credits     int64  `json:"credits"`
	AmountCents int64  `json:"amount_cents"`
}

type checkoutBody struct {
	Reference   string `json:"reference"`
	ProductID   string `json:"product_id"`
	AmountCents int64  `json:"amount_cents"`
	Metadata    struct {
		UserID    int64  `json:"user_id"`
		ProductID string `json:"product_id"`
		Credits   int64  `json:"credits"`
	} `json:"metadata"`
}

type transferBody struct {
	AccountID   string `json:"account_id"`
	AmountCents int64  `json:"amount_cents"`
}

type Client struct {
	baseURL string
	client  clients.HTTPClientI
}

func NewClient(baseURL string, client clients.HTTPClientI) *Client {
	return &Client{baseURL: baseURL, client: client}
}

// CreateCheckout opens a checkout session for a credit pack purchase. The
// session carries the fulfillment metadata echoed back by the webhook.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	var body checkoutBody
	body.Reference = uuid.NewString()
	body.ProductID = req.ProductID
	body.AmountCents = req.AmountCents
	body.Metadata.UserID = req.UserID
	body.Metadata.ProductID = req.ProductID
	body.Metadata.Credits = req.Credits

	var session CheckoutSession
	if err := c.post(ctx, c.baseURL+"/v1/checkout/sessions", body.Reference, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateTransfer moves earned funds to an external payout account. The
// idempotency key makes a retried call return the original transfer.
func (c *Client) CreateTransfer(ctx context.Context, accountID string, amountCents int64, idempotencyKey string) (*Transfer, error) {
	body := transferBody{AccountID: accountID, AmountCents: amountCents}

	var transfer Transfer
	if err := c.post(ctx, c.baseURL+"/v1/transfers", idempotencyKey, body, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

// post retries only because every call through it is idempotency-keyed.
func (c *Client) post(ctx context.Context, url, idempotencyKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Idempotency-Key", idempotencyKey)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		statusCode, respBody, respHeaders, err := c.client.Post(url, headers, payload)
		if err != nil {
			if attempt < maxRetries {
				time.Sleep(retryInterval * time.Duration(attempt))
				continue
			}
			return fmt.Errorf("payment processor unreachable after %d retries: %w", maxRetries, err)
		}

		switch {
		case statusCode >= 200 && statusCode < 300:
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to parse processor response: %w", err)
			}
			return nil
		case statusCode == http.StatusTooManyRequests:
			retryAfter := retryInterval * time.Duration(attempt)
			if header := respHeaders.Get("Retry-After"); header != "" {
				if seconds, err := strconv.Atoi(header); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			}
			zap.L().Warn("Rate limit detected, retrying", zap.String("url", url), zap.Int("attempt", attempt), zap.Duration("retryAfter", retryAfter))
			time.Sleep(retryAfter)
		case statusCode >= 500:
			zap.L().Warn("Processor error, retrying", zap.String("url", url), zap.Int("status", statusCode), zap.Int("attempt", attempt))
			if attempt < maxRetries {
				time.Sleep(retryInterval * time.Duration(attempt))
				continue
			}
			return fmt.Errorf("processor returned %d after %d retries", statusCode, maxRetries)
		default:
			return fmt.Errorf("processor returned unexpected status %d: %s", statusCode, string(respBody))
		}
	}
	return fmt.Errorf("processor returned %d after %d retries", http.StatusTooManyRequests, maxRetries)
}

// Signer produces and verifies the hex HMAC-SHA256 signature carried on
// webhook deliveries.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(body []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
