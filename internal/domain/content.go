package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review is a rating left by a user on a product. Only approved reviews
// are shown and counted.
type Review struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title,omitempty"`
	Body       string    `json:"body"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// BlogPost is a published article.
type BlogPost struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Body        string     `json:"body,omitempty"`
	CoverImage  string     `json:"cover_image,omitempty"`
	Author      string     `json:"author"`
	Tags        []string   `json:"tags"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// SupportMessage is a contact-form submission.
type SupportMessage struct {
	ID        uuid.UUID `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CustomOrderStatus tracks a bespoke request through quoting.
type CustomOrderStatus string

const (
	CustomOrderPending  CustomOrderStatus = "pending"
	CustomOrderQuoted   CustomOrderStatus = "quoted"
	CustomOrderAccepted CustomOrderStatus = "accepted"
	CustomOrderDeclined CustomOrderStatus = "declined"
)

// CustomOrder is a request for a made-to-order gift.
type CustomOrder struct {
	ID              uuid.UUID         `json:"id"`
	UserID          string            `json:"user_id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone,omitempty"`
	Description     string            `json:"description"`
	Occasion        string            `json:"occasion,omitempty"`
	Budget          *int64            `json:"budget,omitempty"`
	ReferenceImages []string          `json:"reference_images"`
	Status          CustomOrderStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}
