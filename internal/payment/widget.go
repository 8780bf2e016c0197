package payment

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httpclient"
)

// WidgetConfig configures the in-page widget gateway.
type WidgetConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
}

// Widget creates gateway orders that the client pays through an embedded
// widget, then checks the signature the widget hands back.
type Widget struct {
	cfg    WidgetConfig
	client httpclient.Doer
}

// NewWidget creates the widget gateway client.
func NewWidget(cfg WidgetConfig, client httpclient.Doer) *Widget {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Widget{cfg: cfg, client: client}
}

func (w *Widget) Name() domain.PaymentProvider { return domain.ProviderWidget }

type widgetOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type widgetOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (w *Widget) CreatePayment(ctx context.Context, in CreateInput) (*domain.PaymentSession, error) {
	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(w.cfg.KeyID+":"+w.cfg.KeySecret)))
	header.Set(httpclient.IdempotencyKeyHeader, "order-"+in.OrderID.String())

	notes := map[string]string{"order_id": in.OrderID.String()}
	for k, v := range in.Metadata {
		notes[k] = v
	}
	body := widgetOrderRequest{
		Amount:   in.Amount,
		Currency: strings.ToUpper(in.Currency),
		Receipt:  in.OrderID.String(),
		Notes:    notes,
	}

	var resp widgetOrderResponse
	if err := httpclient.DoJSON(ctx, w.client, http.MethodPost, w.cfg.BaseURL+"/v1/orders", header, body, &resp, "payment-widget"); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, apperrors.Unavailable("payment-widget", fmt.Errorf("order response missing id"))
	}

	return &domain.PaymentSession{
		OrderID:     in.OrderID,
		Provider:    domain.ProviderWidget,
		Reference:   resp.ID,
		Amount:      in.Amount,
		Currency:    in.Currency,
		WidgetKey:   w.cfg.KeyID,
		WidgetOrder: resp.ID,
	}, nil
}

// VerifyCallback checks that the widget result belongs to the gateway
// order we opened and was signed with our key secret.
func (w *Widget) VerifyCallback(v domain.PaymentVerification, reference string) error {
	if reference == "" || v.Reference != reference {
		return apperrors.PaymentFailed("payment reference does not match the order")
	}
	if !signatureMatches(SignCallback(w.cfg.KeySecret, v.Reference, v.PaymentID), v.Signature) {
		return apperrors.PaymentFailed("invalid payment signature")
	}
	return nil
}

// SignCallback computes the signature the widget attaches to a payment.
func SignCallback(secret, gatewayOrderID, paymentID string) string {
	return sign(secret, gatewayOrderID+"|"+paymentID)
}
