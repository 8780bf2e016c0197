package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httpclient"
)

// SignatureHeader carries "t=<unix>,v1=<hex hmac>" on hosted webhooks.
const SignatureHeader = "Payment-Signature"

// DefaultWebhookTolerance bounds clock skew and replay age for webhooks.
const DefaultWebhookTolerance = 5 * time.Minute

// Hosted webhook event types.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventPaymentFailed     = "payment.failed"
)

// HostedConfig configures the hosted checkout gateway.
type HostedConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Tolerance     time.Duration
}

// Hosted redirects buyers to the gateway's checkout page.
type Hosted struct {
	cfg    HostedConfig
	client httpclient.Doer
	now    func() time.Time
}

// NewHosted creates the hosted gateway client.
func NewHosted(cfg HostedConfig, client httpclient.Doer) *Hosted {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultWebhookTolerance
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Hosted{cfg: cfg, client: client, now: time.Now}
}

func (h *Hosted) Name() domain.PaymentProvider { return domain.ProviderHosted }

type checkoutSessionRequest struct {
	Amount            int64             `json:"amount"`
	Currency          string            `json:"currency"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email,omitempty"`
	Description       string            `json:"description,omitempty"`
	SuccessURL        string            `json:"success_url"`
	CancelURL         string            `json:"cancel_url"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type checkoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreatePayment opens a checkout session keyed by the order id, so a
// retried call returns the same session.
func (h *Hosted) CreatePayment(ctx context.Context, in CreateInput) (*domain.PaymentSession, error) {
	orderID := in.OrderID.String()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+h.cfg.SecretKey)
	header.Set(httpclient.IdempotencyKeyHeader, "order-"+orderID)

	body := checkoutSessionRequest{
		Amount:            in.Amount,
		Currency:          strings.ToLower(in.Currency),
		ClientReferenceID: orderID,
		CustomerEmail:     in.Email,
		Description:       in.Description,
		SuccessURL:        strings.ReplaceAll(h.cfg.SuccessURL, "{order_id}", orderID),
		CancelURL:         strings.ReplaceAll(h.cfg.CancelURL, "{order_id}", orderID),
		Metadata:          in.Metadata,
	}
	var resp checkoutSessionResponse
	if err := httpclient.DoJSON(ctx, h.client, http.MethodPost, h.cfg.BaseURL+"/v1/checkout/sessions", header, body, &resp, "hosted-checkout"); err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.URL == "" {
		return nil, apperrors.Unavailable("hosted-checkout", fmt.Errorf("session response missing id or url"))
	}

	return &domain.PaymentSession{
		OrderID:     in.OrderID,
		Provider:    domain.ProviderHosted,
		Reference:   resp.ID,
		Amount:      in.Amount,
		Currency:    in.Currency,
		RedirectURL: resp.URL,
	}, nil
}

type hostedWebhook struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		SessionID     string `json:"session_id"`
		PaymentID     string `json:"payment_id"`
		FailureReason string `json:"failure_reason"`
	} `json:"data"`
}

// ParseWebhook verifies the signature header and maps the event to an
// outcome.
func (h *Hosted) ParseWebhook(header http.Header, body []byte) (*domain.PaymentOutcome, error) {
	if err := h.verifySignature(header.Get(SignatureHeader), body); err != nil {
		return nil, err
	}

	var evt hostedWebhook
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, apperrors.InvalidInput("malformed webhook body")
	}
	if evt.Data.SessionID == "" {
		return nil, apperrors.InvalidInput("webhook is missing the session id")
	}

	switch evt.Type {
	case EventCheckoutCompleted:
		return &domain.PaymentOutcome{Reference: evt.Data.SessionID, PaymentID: evt.Data.PaymentID, Succeeded: true}, nil
	case EventCheckoutExpired:
		return &domain.PaymentOutcome{Reference: evt.Data.SessionID, Reason: "checkout session expired"}, nil
	case EventPaymentFailed:
		reason := evt.Data.FailureReason
		if reason == "" {
			reason = "payment declined"
		}
		return &domain.PaymentOutcome{Reference: evt.Data.SessionID, PaymentID: evt.Data.PaymentID, Reason: reason}, nil
	default:
		return nil, nil
	}
}

func (h *Hosted) verifySignature(value string, body []byte) error {
	var ts, sig string
	for _, part := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return apperrors.Unauthorized("missing webhook signature")
	}

	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return apperrors.Unauthorized("malformed webhook timestamp")
	}
	age := h.now().Sub(time.Unix(sec, 0))
	if age < -h.cfg.Tolerance || age > h.cfg.Tolerance {
		return apperrors.Unauthorized("webhook timestamp outside tolerance")
	}

	if !signatureMatches(sign(h.cfg.WebhookSecret, ts+"."+string(body)), sig) {
		return apperrors.Unauthorized("invalid webhook signature")
	}
	return nil
}

// SignWebhook builds a signature header value for body at t. Used by
// tests and local tooling that replays webhooks.
func SignWebhook(secret string, t time.Time, body []byte) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return "t=" + ts + ",v1=" + sign(secret, ts+"."+string(body))
}
