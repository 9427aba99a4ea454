package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/repos"
	"github.com/mocky70025/eventplatform-real-sub003/internal/sse"
)

// NotificationService persists notifications and pushes them to any
// connected browser over SSE. Delivery failures never fail the calling
// operation; the persisted row is the source of truth.
type NotificationService interface {
	Notify(ctx context.Context, recipientID uuid.UUID, kind, title, body string, event sse.Event)
	List(ctx context.Context, recipientID uuid.UUID) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
}

type notificationService struct {
	notifications repos.NotificationRepo
	hub           *sse.Hub
	log           *logger.Logger
}

func NewNotificationService(
	notifications repos.NotificationRepo,
	hub *sse.Hub,
	baseLog *logger.Logger,
) NotificationService {
	return &notificationService{
		notifications: notifications,
		hub:           hub,
		log:           baseLog.With("service", "NotificationService"),
	}
}

func (s *notificationService) Notify(ctx context.Context, recipientID uuid.UUID, kind, title, body string, event sse.Event) {
	n := &domain.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Kind:        kind,
		Title:       title,
		Body:        body,
		CreatedAt:   time.Now(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		s.log.Error("notification persist failed", "error", err, "recipient_id", recipientID, "kind", kind)
		return
	}

	s.hub.Broadcast(sse.Message{
		Channel: sse.NotificationChannel(recipientID),
		Event:   event,
		Data:    n,
	})
}

func (s *notificationService) List(ctx context.Context, recipientID uuid.UUID) ([]*domain.Notification, error) {
	return s.notifications.ListByRecipient(ctx, recipientID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.notifications.MarkRead(ctx, id, recipientID)
}
