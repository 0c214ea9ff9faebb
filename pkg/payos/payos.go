// Package payos provides a minimal HTTP client for the PayOS payment gateway.
package payos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/evcare-vn/evcare_backend/config"
)

var (
	ErrLinkCreation       = errors.New("payos: payment link creation failed")
	ErrLinkNotFound       = errors.New("payos: payment link not found")
	ErrInvalidSignature   = errors.New("payos: invalid signature")
	ErrUnexpectedResponse = errors.New("payos: unexpected response from gateway")
)

// Gateway status values as reported by PayOS.
const (
	GatewayStatusPending    = "PENDING"
	GatewayStatusProcessing = "PROCESSING"
	GatewayStatusPaid       = "PAID"
	GatewayStatusCancelled  = "CANCELLED"
	GatewayStatusExpired    = "EXPIRED"
)

// DescriptionLimit is the gateway's hard cap on the payment description.
// Longer descriptions are truncated before signing.
const DescriptionLimit = 25

// Client is a lightweight PayOS HTTP client.
type Client struct {
	clientID    string
	apiKey      string
	checksumKey string
	baseURL     string
	httpClient  *http.Client
}

// New creates a Client from config.
func New(cfg config.PayOSConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api-merchant.payos.vn"
	}
	return &Client{
		clientID:    cfg.ClientID,
		apiKey:      cfg.APIKey,
		checksumKey: cfg.ChecksumKey,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateLinkRequest holds the fields PayOS needs to create a checkout link.
type CreateLinkRequest struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
	ExpiredAt   time.Time
}

// PaymentLink is the gateway's view of a created checkout link.
type PaymentLink struct {
	PaymentLinkID string `json:"paymentLinkId"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	DeepLink      string `json:"deepLink"`
	Status        string `json:"status"`
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
}

// LinkInfo is the authoritative state of a payment link, used by manual sync.
type LinkInfo struct {
	PaymentLinkID   string `json:"id"`
	OrderCode       int64  `json:"orderCode"`
	Amount          int64  `json:"amount"`
	AmountPaid      int64  `json:"amountPaid"`
	Status          string `json:"status"`
	TransactionTime string `json:"transactionDateTime"`
}

// CreatePaymentLink creates a checkout link. The description is truncated to
// DescriptionLimit characters before signing, matching the gateway contract.
func (c *Client) CreatePaymentLink(ctx context.Context, req CreateLinkRequest) (*PaymentLink, error) {
	desc := TruncateDescription(req.Description)

	body := map[string]any{
		"orderCode":   req.OrderCode,
		"amount":      req.Amount,
		"description": desc,
		"returnUrl":   req.ReturnURL,
		"cancelUrl":   req.CancelURL,
		"signature":   Signature(c.checksumKey, req.Amount, req.CancelURL, desc, req.OrderCode, req.ReturnURL),
	}
	if !req.ExpiredAt.IsZero() {
		body["expiredAt"] = req.ExpiredAt.Unix()
	}

	var resp struct {
		Code string      `json:"code"`
		Desc string      `json:"desc"`
		Data PaymentLink `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, "/v2/payment-requests", body, &resp); err != nil {
		return nil, fmt.Errorf("payos create link: %w", err)
	}

	if resp.Code != "00" {
		return nil, fmt.Errorf("%w: %s", ErrLinkCreation, TranslateErrorCode(resp.Code, resp.Desc))
	}
	if resp.Data.CheckoutURL == "" {
		return nil, ErrUnexpectedResponse
	}

	return &resp.Data, nil
}

// GetPaymentLink polls the gateway for the authoritative link status.
func (c *Client) GetPaymentLink(ctx context.Context, orderCode int64) (*LinkInfo, error) {
	var resp struct {
		Code string   `json:"code"`
		Desc string   `json:"desc"`
		Data LinkInfo `json:"data"`
	}

	path := fmt.Sprintf("/v2/payment-requests/%d", orderCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("payos get link: %w", err)
	}

	switch resp.Code {
	case "00":
		return &resp.Data, nil
	case "101":
		return nil, ErrLinkNotFound
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, TranslateErrorCode(resp.Code, resp.Desc))
	}
}

// CancelPaymentLink voids a pending checkout link at the gateway.
func (c *Client) CancelPaymentLink(ctx context.Context, orderCode int64, reason string) error {
	var resp struct {
		Code string `json:"code"`
		Desc string `json:"desc"`
	}

	path := fmt.Sprintf("/v2/payment-requests/%d/cancel", orderCode)
	body := map[string]any{"cancellationReason": reason}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return fmt.Errorf("payos cancel link: %w", err)
	}
	if resp.Code != "00" {
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, TranslateErrorCode(resp.Code, resp.Desc))
	}
	return nil
}

// GenerateOrderCode returns a random 6-digit order code. Collisions are
// possible; callers retry against the unique index on duplicate.
func GenerateOrderCode() int64 {
	return int64(rand.Intn(900000) + 100000)
}

// TranslateErrorCode maps gateway error codes to customer-facing Vietnamese
// messages. Unknown codes fall back to the gateway description.
func TranslateErrorCode(code, desc string) string {
	switch code {
	case "01":
		return "Giao dịch không hợp lệ"
	case "101":
		return "Không tìm thấy giao dịch"
	case "231":
		return "Đơn hàng đã tồn tại"
	case "429":
		return "Hệ thống thanh toán đang bận, vui lòng thử lại"
	default:
		if desc == "" {
			return "Lỗi cổng thanh toán"
		}
		return desc
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-api-key", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
