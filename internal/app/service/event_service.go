package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ali-LB/dbcc/internal/app/access"
	"github.com/Ali-LB/dbcc/internal/app/validation"
	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/Ali-LB/dbcc/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type EventService struct {
	log       *slog.Logger
	eventRepo repository.EventRepository
}

func NewEventService(log *slog.Logger, eventRepo repository.EventRepository) *EventService {
	return &EventService{log: log, eventRepo: eventRepo}
}

type CreateEventRequest struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"required"`
	Location     string    `json:"location" validate:"required,max=200"`
	Date         time.Time `json:"date" validate:"required"`
	MaxAttendees *int      `json:"max_attendees,omitempty" validate:"omitnil,gte=0"` // 0 or absent means unlimited
	Published    bool      `json:"published"`
	IsActive     *bool     `json:"is_active,omitempty"` // defaults to true
}

type UpdateEventRequest struct {
	Title        *string    `json:"title,omitempty" validate:"omitnil,min=1,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitnil,min=1"`
	Location     *string    `json:"location,omitempty" validate:"omitnil,min=1,max=200"`
	Date         *time.Time `json:"date,omitempty"`
	MaxAttendees *int       `json:"max_attendees,omitempty" validate:"omitnil,gte=0"`
	Published    *bool      `json:"published,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

// ListPublic returns active, published events ordered by date.
func (s *EventService) ListPublic(ctx context.Context, p model.Principal) ([]model.Event, error) {
	return s.eventRepo.List(ctx, repository.EventFilter{VisibleOnly: true, ViewerID: viewerID(p)})
}

// Get returns one event. Hidden events are only visible to admins.
func (s *EventService) Get(ctx context.Context, p model.Principal, id string) (*model.Event, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, common.ErrEventNotFound
	}
	event, err := s.eventRepo.FindByID(ctx, id, viewerID(p))
	if err != nil {
		return nil, err
	}
	if !event.Visible() && access.Authorize(p, model.RoleAdmin) != nil {
		return nil, common.ErrEventNotFound
	}
	return event, nil
}

func (s *EventService) AdminList(ctx context.Context, p model.Principal) ([]model.Event, error) {
	if err := access.Authorize(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, repository.EventFilter{ViewerID: p.UserID})
}

func (s *EventService) Create(ctx context.Context, p model.Principal, req CreateEventRequest) (*model.Event, error) {
	const op = "service.EventService.Create"

	if err := access.Authorize(p, model.RoleAdmin); err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Location = strings.TrimSpace(req.Location)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", common.ErrValidation)
	}

	event := &model.Event{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Date:         req.Date.UTC(),
		MaxAttendees: capacity(req.MaxAttendees),
		IsActive:     true,
		Published:    req.Published,
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}
	event.Slug = eventSlug(event.ID, event.Title, event.Date)

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	s.log.Info("event created", slog.String("op", op), slog.String("event_id", event.ID), slog.String("admin_id", p.UserID))
	return event, nil
}

// Update edits an event. Lowering capacity below the confirmed count or
// deactivating the event keeps existing registrations; it only blocks new ones.
func (s *EventService) Update(ctx context.Context, p model.Principal, id string, req UpdateEventRequest) (*model.Event, error) {
	const op = "service.EventService.Update"

	if err := access.Authorize(p, model.RoleAdmin); err != nil {
		return nil, err
	}
	id, ok := canonicalID(id)
	if !ok {
		return nil, common.ErrEventNotFound
	}

	trimPtr(req.Title)
	trimPtr(req.Description)
	trimPtr(req.Location)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.FindByID(ctx, id, p.UserID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.Date != nil {
		event.Date = req.Date.UTC()
	}
	if req.MaxAttendees != nil {
		event.MaxAttendees = capacity(req.MaxAttendees)
	}
	if req.Published != nil {
		event.Published = *req.Published
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}
	if req.Title != nil || req.Date != nil {
		event.Slug = eventSlug(event.ID, event.Title, event.Date)
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	s.log.Info("event updated", slog.String("op", op), slog.String("event_id", event.ID), slog.String("admin_id", p.UserID))
	return event, nil
}

// Delete removes the event together with its registrations.
func (s *EventService) Delete(ctx context.Context, p model.Principal, id string) error {
	const op = "service.EventService.Delete"

	if err := access.Authorize(p, model.RoleAdmin); err != nil {
		return err
	}
	id, ok := canonicalID(id)
	if !ok {
		return common.ErrEventNotFound
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("event deleted", slog.String("op", op), slog.String("event_id", id), slog.String("admin_id", p.UserID))
	return nil
}

// eventSlug derives the public slug from the title, the date and the first
// eight characters of the event id, so same-day events with the same title
// still get distinct slugs.
func eventSlug(id, title string, date time.Time) string {
	return slug.Make(fmt.Sprintf("%s %s %s", title, date.Format("2006-01-02"), id[:8]))
}

// capacity maps a requested limit to storage: zero means unlimited.
func capacity(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	n := *v
	return &n
}

func viewerID(p model.Principal) string {
	if !p.IsAuthenticated() {
		return ""
	}
	return p.UserID
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
