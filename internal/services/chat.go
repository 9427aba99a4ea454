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

// ChatService is the conversation between an application's exhibitor and
// the organizer of its event. Messages persist first, then fan out over
// SSE.
type ChatService interface {
	Send(ctx context.Context, userID, applicationID uuid.UUID, body string) (*domain.ChatMessage, error)
	History(ctx context.Context, userID, applicationID uuid.UUID) ([]*domain.ChatMessage, error)
	// Authorize reports whether the user participates in the
	// application's conversation. The SSE subscribe path uses it.
	Authorize(ctx context.Context, userID, applicationID uuid.UUID) error
}

type chatService struct {
	chats        repos.ChatRepo
	applications repos.ApplicationRepo
	events       repos.EventRepo
	organizers   repos.OrganizerRepo
	exhibitors   repos.ExhibitorRepo
	hub          *sse.Hub
	log          *logger.Logger
}

func NewChatService(
	chats repos.ChatRepo,
	applications repos.ApplicationRepo,
	events repos.EventRepo,
	organizers repos.OrganizerRepo,
	exhibitors repos.ExhibitorRepo,
	hub *sse.Hub,
	baseLog *logger.Logger,
) ChatService {
	return &chatService{
		chats:        chats,
		applications: applications,
		events:       events,
		organizers:   organizers,
		exhibitors:   exhibitors,
		hub:          hub,
		log:          baseLog.With("service", "ChatService"),
	}
}

func (s *chatService) Authorize(ctx context.Context, userID, applicationID uuid.UUID) error {
	a, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}

	// Exhibitor side.
	ex, err := s.exhibitors.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if ex != nil && ex.ID == a.ExhibitorID {
		return nil
	}

	// Organizer side, via the event.
	org, err := s.organizers.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if org != nil {
		e, err := s.events.GetByID(ctx, a.EventID)
		if err != nil {
			return err
		}
		if e != nil && e.OrganizerID == org.ID {
			return nil
		}
	}

	return ErrForbidden
}

func (s *chatService) Send(ctx context.Context, userID, applicationID uuid.UUID, body string) (*domain.ChatMessage, error) {
	if err := s.Authorize(ctx, userID, applicationID); err != nil {
		return nil, err
	}

	m := &domain.ChatMessage{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		SenderID:      userID,
		Body:          body,
		CreatedAt:     time.Now(),
	}
	if err := s.chats.Create(ctx, m); err != nil {
		return nil, err
	}

	s.hub.Broadcast(sse.Message{
		Channel: sse.ChatChannel(applicationID),
		Event:   sse.EventChatMessageCreated,
		Data:    m,
	})

	return m, nil
}

func (s *chatService) History(ctx context.Context, userID, applicationID uuid.UUID) ([]*domain.ChatMessage, error) {
	if err := s.Authorize(ctx, userID, applicationID); err != nil {
		return nil, err
	}
	return s.chats.ListByApplication(ctx, applicationID)
}
