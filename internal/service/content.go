package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/event"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/pagination"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/slug"
)

// SupportMessageInput is the body of a contact-form submission.
type SupportMessageInput struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

// CustomOrderInput is the body of a bespoke order request.
type CustomOrderInput struct {
	Name            string   `json:"name" validate:"required,min=1,max=100"`
	Email           string   `json:"email" validate:"required,email"`
	Phone           string   `json:"phone" validate:"omitempty,max=20"`
	Description     string   `json:"description" validate:"required,min=10,max=5000"`
	Occasion        string   `json:"occasion" validate:"omitempty,max=100"`
	Budget          *int64   `json:"budget" validate:"omitempty,gt=0"`
	ReferenceImages []string `json:"reference_images" validate:"omitempty,max=10,dive,url"`
}

// ContentService serves the blog and takes support and custom order
// requests.
type ContentService struct {
	blog     repository.BlogRepository
	support  repository.SupportRepository
	custom   repository.CustomOrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

func NewContentService(
	blog repository.BlogRepository,
	support repository.SupportRepository,
	custom repository.CustomOrderRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ContentService {
	return &ContentService{blog: blog, support: support, custom: custom, producer: producer, logger: logger}
}

func (s *ContentService) ListPosts(ctx context.Context, tag string, p pagination.Params) (pagination.Result[domain.BlogPost], error) {
	p = normalizePage(p.Page, p.PerPage)
	posts, total, err := s.blog.ListPublished(ctx, strings.TrimSpace(tag), p.Page, p.PerPage)
	if err != nil {
		return pagination.Result[domain.BlogPost]{}, fmt.Errorf("list posts: %w", err)
	}
	return pagination.NewResult(posts, total, p), nil
}

func (s *ContentService) GetPost(ctx context.Context, raw string) (*domain.BlogPost, error) {
	key := slug.Normalize(raw)
	if key == "" {
		return nil, apperrors.NotFound("blog post", raw)
	}
	return s.blog.GetBySlug(ctx, key)
}

// CreateSupportMessage stores a contact-form submission. userID is empty
// for guests.
func (s *ContentService) CreateSupportMessage(ctx context.Context, userID string, in SupportMessageInput) (*domain.SupportMessage, error) {
	msg := &domain.SupportMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
		Status:  "open",
	}
	if userID != "" {
		msg.UserID = &userID
	}
	if err := s.support.Create(ctx, msg); err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, s.logger)
	log.InfoContext(ctx, "support message received", slog.String("message_id", msg.ID.String()))
	if err := s.producer.PublishSupportMessageCreated(ctx, msg); err != nil {
		log.ErrorContext(ctx, "failed to publish support message event", slog.String("error", err.Error()))
	}
	return msg, nil
}

// RequestCustomOrder records a bespoke gift request for an authenticated
// user.
func (s *ContentService) RequestCustomOrder(ctx context.Context, userID string, in CustomOrderInput) (*domain.CustomOrder, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("sign in to request a custom order")
	}
	images := in.ReferenceImages
	if images == nil {
		images = []string{}
	}
	co := &domain.CustomOrder{
		UserID:          userID,
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.TrimSpace(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		Description:     strings.TrimSpace(in.Description),
		Occasion:        strings.TrimSpace(in.Occasion),
		Budget:          in.Budget,
		ReferenceImages: images,
		Status:          domain.CustomOrderPending,
	}
	if err := s.custom.Create(ctx, co); err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, s.logger)
	log.InfoContext(ctx, "custom order requested", slog.String("custom_order_id", co.ID.String()))
	if err := s.producer.PublishCustomOrderRequested(ctx, co); err != nil {
		log.ErrorContext(ctx, "failed to publish custom order event", slog.String("error", err.Error()))
	}
	return co, nil
}

func (s *ContentService) ListCustomOrders(ctx context.Context, userID string) ([]domain.CustomOrder, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	orders, err := s.custom.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list custom orders: %w", err)
	}
	return orders, nil
}
