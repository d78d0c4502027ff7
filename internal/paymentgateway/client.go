package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	errors "github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/internal/signature"
)

// MaxDescriptionLength is the provider's hard limit on the transfer
// description, counted in characters. The description is truncated before
// signing because the provider verifies the signature against the
// transmitted value; truncation must never split a rune, or the JSON
// encoder replaces the torn byte and the signature stops matching the
// transmitted body.
const MaxDescriptionLength = 25

type Config struct {
	BaseURL        string
	ClientID       string
	APIKey         string
	ChecksumKey    string
	RequestTimeout time.Duration
}

// Client calls the provider's payment-request API. One bounded synchronous
// call per payment creation; no retries, no background work.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type CreateLinkRequest struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
	ItemName    string
}

// PaymentLink is the provider's answer to a create call: a hosted checkout
// page plus the raw QR payload for in-app rendering.
type PaymentLink struct {
	CheckoutURL   string
	QRCode        string
	PaymentLinkID string
}

type createLinkPayload struct {
	OrderCode   int64         `json:"orderCode"`
	Amount      int64         `json:"amount"`
	Description string        `json:"description"`
	ReturnURL   string        `json:"returnUrl"`
	CancelURL   string        `json:"cancelUrl"`
	Signature   string        `json:"signature"`
	Items       []itemPayload `json:"items"`
}

type itemPayload struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type createLinkEnvelope struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data *createLinkData `json:"data"`
}

type createLinkData struct {
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	PaymentLinkID string `json:"paymentLinkId"`
}

const providerSuccessCode = "00"

// CreatePaymentLink signs and sends one payment-request call. Any transport
// or protocol failure is surfaced to the caller and nothing is persisted
// for the attempt.
func (c *Client) CreatePaymentLink(ctx context.Context, req CreateLinkRequest) (*PaymentLink, error) {
	description := req.Description
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		description = string([]rune(description)[:MaxDescriptionLength])
		c.logger.Warn("description truncated to provider limit",
			"order_code", req.OrderCode,
			"max_length", MaxDescriptionLength)
	}

	canonical := signature.ProviderRequestCanonical(req.Amount, req.CancelURL, description, req.OrderCode, req.ReturnURL)
	sig, err := signature.Sign(canonical, c.cfg.ChecksumKey)
	if err != nil {
		return nil, errors.NewInternalError("payment provider checksum key is not configured", err)
	}

	payload := createLinkPayload{
		OrderCode:   req.OrderCode,
		Amount:      req.Amount,
		Description: description,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
		Signature:   sig,
		Items: []itemPayload{
			{Name: req.ItemName, Quantity: 1, Price: req.Amount},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	url := c.cfg.BaseURL + "/v2/payment-requests"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", c.cfg.ClientID)
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)

	c.logger.Info("requesting payment link",
		"url", url,
		"order_code", req.OrderCode,
		"amount", req.Amount)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("payment provider unreachable", "error", err, "order_code", req.OrderCode)
		return nil, errors.NewExternalError("payment provider unreachable", errors.ErrCodeProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewExternalError("failed to read provider response", errors.ErrCodeProviderProtocol, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("payment provider returned error status",
			"status", resp.StatusCode,
			"response", string(respBody),
			"order_code", req.OrderCode)
		return nil, errors.NewExternalError(
			fmt.Sprintf("payment provider returned status %d", resp.StatusCode),
			errors.ErrCodeProviderUnavailable, nil)
	}

	var envelope createLinkEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, errors.NewExternalError("malformed provider response", errors.ErrCodeProviderProtocol, err)
	}

	if envelope.Code != providerSuccessCode {
		c.logger.Error("payment provider rejected request",
			"code", envelope.Code,
			"desc", envelope.Desc,
			"order_code", req.OrderCode)
		return nil, errors.NewExternalError(
			fmt.Sprintf("payment provider error: %s (code %s)", envelope.Desc, envelope.Code),
			errors.ErrCodeProviderProtocol, nil)
	}

	if envelope.Data == nil || envelope.Data.CheckoutURL == "" {
		// Treat a success envelope without a checkout URL as a protocol
		// error; persisting a pending payment with no reference would
		// orphan it.
		return nil, errors.NewExternalError("provider response missing checkoutUrl", errors.ErrCodeProviderProtocol, nil)
	}

	c.logger.Info("payment link created",
		"order_code", req.OrderCode,
		"payment_link_id", envelope.Data.PaymentLinkID)

	return &PaymentLink{
		CheckoutURL:   envelope.Data.CheckoutURL,
		QRCode:        envelope.Data.QRCode,
		PaymentLinkID: envelope.Data.PaymentLinkID,
	}, nil
}
