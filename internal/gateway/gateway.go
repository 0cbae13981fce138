// Package gateway talks to the payment processor: it opens transactions and checks
// the signatures the processor attaches to payment callbacks.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUnavailable = errors.New("payment gateway unavailable")
	ErrTimeout     = errors.New("payment gateway timeout")
)

// Transaction is the gateway-side order the client pays against.
type Transaction struct {
	ID       string `json:"id"`
	Entity   string `json:"entity,omitempty"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status"`
}

type Gateway interface {
	OpenTransaction(ctx context.Context, amountMinor int64, currency, receipt string) (*Transaction, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type Client struct {
	HTTP    *http.Client
	BaseURL string
	keyID   string
	secret  string
}

func NewClient(baseURL, keyID, secret string, timeout time.Duration) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
		keyID:   keyID,
		secret:  secret,
	}
}

func (c *Client) KeyID() string { return c.keyID }

// OpenTransaction creates an auto-captured order for amountMinor (paise, cents).
func (c *Client) OpenTransaction(ctx context.Context, amountMinor int64, currency, receipt string) (*Transaction, error) {
	body, _ := json.Marshal(map[string]any{
		"amount":          amountMinor,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, classify(err)
	}
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, res.StatusCode, excerpt(raw))
	}
	var tx Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if tx.ID == "" {
		return nil, fmt.Errorf("%w: response without order id", ErrUnavailable)
	}
	return &tx, nil
}

// VerifySignature checks hex(HMAC-SHA256(secret, orderID|paymentID)) in constant time.
// Without a secret anyone could compute the signature, so nothing verifies.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	if c.secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	want := Sign(c.secret, orderID, paymentID)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(signature)))
}

// Sign produces the signature the gateway attaches to a successful payment.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func classify(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
