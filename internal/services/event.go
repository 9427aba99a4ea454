package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/repos"
	"github.com/mocky70025/eventplatform-real-sub003/internal/sse"
)

// EventService owns the event lifecycle: draft → pending → published or
// rejected. Unapproved organizers cannot create events.
type EventService interface {
	Create(ctx context.Context, userID uuid.UUID, in EventInput) (*domain.Event, error)
	Update(ctx context.Context, userID, eventID uuid.UUID, in EventInput) (*domain.Event, error)
	Submit(ctx context.Context, userID, eventID uuid.UUID) error
	ListOwn(ctx context.Context, userID uuid.UUID) ([]*domain.Event, error)
	ListPublished(ctx context.Context) ([]*domain.Event, error)
	Get(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)

	ListPending(ctx context.Context) ([]*domain.Event, error)
	Publish(ctx context.Context, actorID, eventID uuid.UUID) error
	Reject(ctx context.Context, actorID, eventID uuid.UUID, reason string) error
}

type EventInput struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
	Capacity    int       `json:"capacity"`
}

type eventService struct {
	events        repos.EventRepo
	organizers    repos.OrganizerRepo
	adminLogs     repos.AdminLogRepo
	notifications NotificationService
	log           *logger.Logger
}

func NewEventService(
	events repos.EventRepo,
	organizers repos.OrganizerRepo,
	adminLogs repos.AdminLogRepo,
	notifications NotificationService,
	baseLog *logger.Logger,
) EventService {
	return &eventService{
		events:        events,
		organizers:    organizers,
		adminLogs:     adminLogs,
		notifications: notifications,
		log:           baseLog.With("service", "EventService"),
	}
}

// ownedOrganizer loads the organizer profile for the acting user.
func (s *eventService) ownedOrganizer(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error) {
	org, err := s.organizers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
	}
	return org, nil
}

func (s *eventService) Create(ctx context.Context, userID uuid.UUID, in EventInput) (*domain.Event, error) {
	org, err := s.ownedOrganizer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !org.IsApproved {
		return nil, ErrNotApproved
	}

	now := time.Now()
	e := &domain.Event{
		ID:          uuid.New(),
		OrganizerID: org.ID,
		Title:       in.Title,
		Description: in.Description,
		Venue:       in.Venue,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Capacity:    in.Capacity,
		Status:      domain.EventDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info("event created", "event_id", e.ID, "organizer_id", org.ID)
	return e, nil
}

func (s *eventService) Update(ctx context.Context, userID, eventID uuid.UUID, in EventInput) (*domain.Event, error) {
	org, err := s.ownedOrganizer(ctx, userID)
	if err != nil {
		return nil, err
	}

	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	if e.OrganizerID != org.ID {
		return nil, ErrForbidden
	}
	// Published events are immutable; rejected ones may be edited and
	// resubmitted.
	if e.Status == domain.EventPublished {
		return nil, ErrInvalidTransition
	}

	e.Title = in.Title
	e.Description = in.Description
	e.Venue = in.Venue
	e.StartsAt = in.StartsAt
	e.EndsAt = in.EndsAt
	e.Capacity = in.Capacity
	e.UpdatedAt = time.Now()

	if err := s.events.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Submit moves a draft or rejected event into the admin review queue.
func (s *eventService) Submit(ctx context.Context, userID, eventID uuid.UUID) error {
	org, err := s.ownedOrganizer(ctx, userID)
	if err != nil {
		return err
	}

	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrNotFound
	}
	if e.OrganizerID != org.ID {
		return ErrForbidden
	}
	if e.Status != domain.EventDraft && e.Status != domain.EventRejected {
		return ErrInvalidTransition
	}

	return s.events.SetStatus(ctx, eventID, domain.EventPending, "")
}

func (s *eventService) ListOwn(ctx context.Context, userID uuid.UUID) ([]*domain.Event, error) {
	org, err := s.ownedOrganizer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.events.ListByOrganizer(ctx, org.ID)
}

func (s *eventService) ListPublished(ctx context.Context) ([]*domain.Event, error) {
	return s.events.ListPublished(ctx)
}

func (s *eventService) Get(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *eventService) ListPending(ctx context.Context) ([]*domain.Event, error) {
	return s.events.ListByStatus(ctx, domain.EventPending)
}

func (s *eventService) Publish(ctx context.Context, actorID, eventID uuid.UUID) error {
	return s.decide(ctx, actorID, eventID, domain.EventPublished, "")
}

func (s *eventService) Reject(ctx context.Context, actorID, eventID uuid.UUID, reason string) error {
	return s.decide(ctx, actorID, eventID, domain.EventRejected, reason)
}

func (s *eventService) decide(ctx context.Context, actorID, eventID uuid.UUID, status domain.EventStatus, reason string) error {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrNotFound
	}
	if e.Status != domain.EventPending {
		return ErrInvalidTransition
	}

	if err := s.events.SetStatus(ctx, eventID, status, reason); err != nil {
		return err
	}

	action := "event.publish"
	if status == domain.EventRejected {
		action = "event.reject"
	}
	if err := s.adminLogs.Append(ctx, &domain.AdminLog{
		ID:        uuid.New(),
		ActorID:   actorID,
		Action:    action,
		TargetID:  eventID,
		Detail:    fmt.Sprintf("%s %q", action, e.Title),
		CreatedAt: time.Now(),
	}); err != nil {
		s.log.Error("admin log append failed", "error", err, "event_id", eventID)
	}

	org, err := s.organizers.GetByID(ctx, e.OrganizerID)
	if err != nil || org == nil || org.UserID == nil {
		return nil
	}

	if status == domain.EventPublished {
		s.notifications.Notify(ctx, *org.UserID, "event_published",
			"Event published",
			fmt.Sprintf("Your event %q is now live.", e.Title),
			sse.EventNotificationCreated,
		)
	} else {
		s.notifications.Notify(ctx, *org.UserID, "event_rejected",
			"Event rejected",
			fmt.Sprintf("Your event %q was rejected: %s", e.Title, reason),
			sse.EventNotificationCreated,
		)
	}

	return nil
}
