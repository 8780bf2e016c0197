package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/service"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httputil"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/middleware"
)

// maxWebhookBody bounds what a gateway may post to us.
const maxWebhookBody = 1 << 20

// CheckoutHandler places orders and accepts payment confirmations.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutInput
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	result, err := h.service.Checkout(r.Context(),
		middleware.UserIDFromContext(r.Context()),
		middleware.EmailFromContext(r.Context()),
		req,
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, result)
}

// Verify handles POST /api/v1/checkout/verify, the widget callback.
func (h *CheckoutHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentVerification
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	order, err := h.service.VerifyWidget(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// Webhook handles POST /api/v1/payments/webhook from the hosted gateway.
// The raw body is needed for signature verification.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("unreadable webhook body"), h.logger)
		return
	}
	if err := h.service.HandleWebhook(r.Context(), domain.ProviderHosted, r.Header, body); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]bool{"received": true})
}
