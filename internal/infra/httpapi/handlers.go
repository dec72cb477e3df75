package httpapi

import (
	"context"
	"net/http"
	"time"

	"review_reminder/internal/app"
	"review_reminder/internal/domain/review"
	"review_reminder/internal/domain/subscriber"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Sweeper runs the due-notification sweep.
type Sweeper interface {
	ProcessDueNotifications(ctx context.Context) (*app.SweepResult, error)
}

// ReviewGenerator lists descriptors and composes reviews.
type ReviewGenerator interface {
	ListDescriptors(ctx context.Context) ([]*review.Category, error)
	GenerateReview(ctx context.Context, in app.GenerateReviewInput) (*review.GeneratedReview, error)
}

// SubscriberManager covers the subscriber lifecycle.
type SubscriberManager interface {
	Subscribe(ctx context.Context, in app.SubscribeInput) (*app.SubscribeResult, error)
	UpdatePreferences(ctx context.Context, subscriberID uuid.UUID, in app.PreferencesInput) (*subscriber.Subscriber, error)
	Deactivate(ctx context.Context, email string) error
	MarkReviewCompleted(ctx context.Context, subscriberID, companyID uuid.UUID) (*review.Company, error)
}

type handler struct {
	sweeper     Sweeper
	reviews     ReviewGenerator
	subscribers SubscriberManager
}

// --- DTOs ---

type descriptorDTO struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type categoryDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	SortOrder   int             `json:"sortOrder"`
	Descriptors []descriptorDTO `json:"descriptors"`
}

type generateReviewRequest struct {
	CompanySlug   string  `json:"companySlug" validate:"required"`
	DescriptorIDs []int64 `json:"descriptorIds" validate:"required,min=1"`
	SubscriberID  string  `json:"subscriberId" validate:"omitempty,uuid"`
}

type generatedReviewDTO struct {
	ID        int64     `json:"id"`
	CompanyID uuid.UUID `json:"companyId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type subscriberDTO struct {
	ID                       uuid.UUID `json:"id"`
	Email                    string    `json:"email"`
	Name                     string    `json:"name,omitempty"`
	PreferredLanguage        string    `json:"preferredLanguage"`
	NotificationIntervalDays float64   `json:"notificationIntervalDays"`
	PreferredTimeSlot        string    `json:"preferredTimeSlot"`
	IsActive                 bool      `json:"isActive"`
}

type subscriptionDTO struct {
	CompanyID          uuid.UUID  `json:"companyId"`
	NextNotificationAt *time.Time `json:"nextNotificationAt,omitempty"`
}

type subscribeResponse struct {
	Subscriber        subscriberDTO     `json:"subscriber"`
	Subscriptions     []subscriptionDTO `json:"subscriptions"`
	ExistingCompanies []string          `json:"existingCompanies,omitempty"`
}

type deactivateRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type completeRequest struct {
	SubscriberID string `json:"subscriberId" validate:"required,uuid"`
	CompanyID    string `json:"companyId" validate:"required,uuid"`
}

type companyDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

func toSubscriberDTO(s *subscriber.Subscriber) subscriberDTO {
	return subscriberDTO{
		ID:                       s.ID,
		Email:                    s.Email,
		Name:                     s.Name.String,
		PreferredLanguage:        s.PreferredLanguage,
		NotificationIntervalDays: s.NotificationIntervalDays,
		PreferredTimeSlot:        string(s.PreferredTimeSlot),
		IsActive:                 s.IsActive,
	}
}

// --- Handlers ---

// ProcessDueNotifications triggers one sweep. Per-subscriber failures still yield 200.
// The sweep is detached from the request so a client disconnect does not cut it short.
func (h *handler) ProcessDueNotifications(c echo.Context) error {
	res, err := h.sweeper.ProcessDueNotifications(context.WithoutCancel(c.Request().Context()))
	if err != nil {
		return handleAppError(c, err)
	}
	return Success(c, http.StatusOK, res, "Sweep finished")
}

func (h *handler) ListDescriptors(c echo.Context) error {
	categories, err := h.reviews.ListDescriptors(c.Request().Context())
	if err != nil {
		return handleAppError(c, err)
	}

	out := make([]categoryDTO, 0, len(categories))
	for _, cat := range categories {
		dto := categoryDTO{ID: cat.ID, Name: cat.Name, SortOrder: cat.SortOrder, Descriptors: make([]descriptorDTO, 0, len(cat.Descriptors))}
		for _, d := range cat.Descriptors {
			dto.Descriptors = append(dto.Descriptors, descriptorDTO{ID: d.ID, Text: d.Text})
		}
		out = append(out, dto)
	}
	return Success(c, http.StatusOK, out, "")
}

func (h *handler) GenerateReview(c echo.Context) error {
	var req generateReviewRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "INVALID_INPUT", "Invalid review input")
	}
	if err := c.Validate(&req); err != nil {
		return BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	in := app.GenerateReviewInput{CompanySlug: req.CompanySlug, DescriptorIDs: req.DescriptorIDs}
	if req.SubscriberID != "" {
		id := uuid.MustParse(req.SubscriberID)
		in.SubscriberID = &id
	}

	generated, err := h.reviews.GenerateReview(c.Request().Context(), in)
	if err != nil {
		return handleAppError(c, err)
	}
	return Success(c, http.StatusCreated, generatedReviewDTO{
		ID:        generated.ID,
		CompanyID: generated.CompanyID,
		Text:      generated.Text,
		CreatedAt: generated.CreatedAt,
	}, "Review generated")
}

func (h *handler) Subscribe(c echo.Context) error {
	var req app.SubscribeInput
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "INVALID_INPUT", "Invalid subscriber input")
	}

	res, err := h.subscribers.Subscribe(c.Request().Context(), req)
	if err != nil {
		return handleAppError(c, err)
	}

	out := subscribeResponse{
		Subscriber:        toSubscriberDTO(res.Subscriber),
		Subscriptions:     make([]subscriptionDTO, 0, len(res.Subscriptions)),
		ExistingCompanies: res.ExistingCompanies,
	}
	for _, s := range res.Subscriptions {
		dto := subscriptionDTO{CompanyID: s.CompanyID}
		if s.NextNotificationAt.Valid {
			next := s.NextNotificationAt.Time
			dto.NextNotificationAt = &next
		}
		out.Subscriptions = append(out.Subscriptions, dto)
	}
	return Success(c, http.StatusCreated, out, "Subscribed")
}

func (h *handler) UpdatePreferences(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequest(c, "INVALID_ID", "Invalid subscriber id")
	}

	var req app.PreferencesInput
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "INVALID_INPUT", "Invalid preferences input")
	}

	sub, err := h.subscribers.UpdatePreferences(c.Request().Context(), id, req)
	if err != nil {
		return handleAppError(c, err)
	}
	return Success(c, http.StatusOK, toSubscriberDTO(sub), "Preferences updated")
}

func (h *handler) Deactivate(c echo.Context) error {
	var req deactivateRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "INVALID_INPUT", "Invalid deactivation input")
	}
	if err := c.Validate(&req); err != nil {
		return BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	if err := h.subscribers.Deactivate(c.Request().Context(), req.Email); err != nil {
		return handleAppError(c, err)
	}
	return Success(c, http.StatusOK, nil, "Subscriber deactivated")
}

func (h *handler) CompleteSubscription(c echo.Context) error {
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "INVALID_INPUT", "Invalid completion input")
	}
	if err := c.Validate(&req); err != nil {
		return BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	company, err := h.subscribers.MarkReviewCompleted(c.Request().Context(), uuid.MustParse(req.SubscriberID), uuid.MustParse(req.CompanyID))
	if err != nil {
		return handleAppError(c, err)
	}
	return Success(c, http.StatusOK, companyDTO{ID: company.ID, Name: company.Name, Slug: company.Slug}, "Review marked completed")
}

func healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
