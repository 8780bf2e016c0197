// Package payment integrates the storefront with its payment gateways: a
// hosted checkout page confirmed by webhook, and an in-page widget whose
// signed result the client forwards back.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// CreateInput is what every gateway needs to open a payment.
type CreateInput struct {
	OrderID     uuid.UUID
	Amount      int64
	Currency    string
	Email       string
	Description string
	Metadata    map[string]string
}

// Provider opens payments with one gateway.
type Provider interface {
	Name() domain.PaymentProvider
	CreatePayment(ctx context.Context, in CreateInput) (*domain.PaymentSession, error)
}

// CallbackVerifier checks a signed result relayed by the client.
// reference is the gateway order id recorded when the payment was opened.
type CallbackVerifier interface {
	VerifyCallback(v domain.PaymentVerification, reference string) error
}

// WebhookParser authenticates and decodes a gateway webhook. A nil outcome
// with a nil error means the event is valid but not one we act on.
type WebhookParser interface {
	ParseWebhook(header http.Header, body []byte) (*domain.PaymentOutcome, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[domain.PaymentProvider]Provider
}

// NewRegistry registers providers; nil entries are skipped so optional
// gateways can be passed unconditionally.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[domain.PaymentProvider]Provider)}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Get returns the named provider.
func (r *Registry) Get(name domain.PaymentProvider) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("payment provider %q is not available", name))
	}
	return p, nil
}

// Names lists the registered providers in a stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func signatureMatches(expected, got string) bool {
	got = strings.ToLower(strings.TrimSpace(got))
	return hmac.Equal([]byte(expected), []byte(got))
}
