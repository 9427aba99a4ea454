package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/repos"
	"github.com/mocky70025/eventplatform-real-sub003/internal/sse"
)

// ApplicationService handles exhibitor applications to events and the
// organizer's approve/reject decisions.
type ApplicationService interface {
	Apply(ctx context.Context, userID, eventID uuid.UUID, message string) (*domain.Application, error)
	ListOwn(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error)
	ListForEvent(ctx context.Context, userID, eventID uuid.UUID) ([]*domain.Application, error)
	Approve(ctx context.Context, userID, applicationID uuid.UUID) error
	Reject(ctx context.Context, userID, applicationID uuid.UUID, reason string) error
}

type applicationService struct {
	applications  repos.ApplicationRepo
	events        repos.EventRepo
	organizers    repos.OrganizerRepo
	exhibitors    repos.ExhibitorRepo
	notifications NotificationService
	log           *logger.Logger
}

func NewApplicationService(
	applications repos.ApplicationRepo,
	events repos.EventRepo,
	organizers repos.OrganizerRepo,
	exhibitors repos.ExhibitorRepo,
	notifications NotificationService,
	baseLog *logger.Logger,
) ApplicationService {
	return &applicationService{
		applications:  applications,
		events:        events,
		organizers:    organizers,
		exhibitors:    exhibitors,
		notifications: notifications,
		log:           baseLog.With("service", "ApplicationService"),
	}
}

func (s *applicationService) Apply(ctx context.Context, userID, eventID uuid.UUID, message string) (*domain.Application, error) {
	ex, err := s.exhibitors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ex == nil {
		return nil, ErrNotFound
	}

	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	if e.Status != domain.EventPublished {
		return nil, ErrEventNotPublished
	}

	now := time.Now()
	a := &domain.Application{
		ID:          uuid.New(),
		EventID:     eventID,
		ExhibitorID: ex.ID,
		Message:     message,
		Status:      domain.ApplicationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.applications.Create(ctx, a); err != nil {
		// The composite unique index turns a double apply into a
		// constraint violation; anything else is an infrastructure
		// failure and must not masquerade as a conflict.
		if isUniqueViolation(err) {
			return nil, ErrAlreadyApplied
		}
		return nil, err
	}

	org, err := s.organizers.GetByID(ctx, e.OrganizerID)
	if err == nil && org != nil && org.UserID != nil {
		s.notifications.Notify(ctx, *org.UserID, "application_received",
			"New application",
			fmt.Sprintf("%s applied to %q.", ex.StoreName, e.Title),
			sse.EventNotificationCreated,
		)
	}

	s.log.Info("application created", "application_id", a.ID, "event_id", eventID, "exhibitor_id", ex.ID)
	return a, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Driver-specific unique violations that gorm does not translate.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

func (s *applicationService) ListOwn(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error) {
	ex, err := s.exhibitors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ex == nil {
		return nil, ErrNotFound
	}
	return s.applications.ListByExhibitor(ctx, ex.ID)
}

// ListForEvent returns applications for an event the acting organizer
// owns.
func (s *applicationService) ListForEvent(ctx context.Context, userID, eventID uuid.UUID) ([]*domain.Application, error) {
	org, err := s.organizers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
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

	return s.applications.ListByEvent(ctx, eventID)
}

func (s *applicationService) Approve(ctx context.Context, userID, applicationID uuid.UUID) error {
	return s.decide(ctx, userID, applicationID, domain.ApplicationApproved, "")
}

func (s *applicationService) Reject(ctx context.Context, userID, applicationID uuid.UUID, reason string) error {
	return s.decide(ctx, userID, applicationID, domain.ApplicationRejected, reason)
}

func (s *applicationService) decide(ctx context.Context, userID, applicationID uuid.UUID, status domain.ApplicationStatus, reason string) error {
	org, err := s.organizers.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if org == nil {
		return ErrNotFound
	}

	a, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if a.Status != domain.ApplicationPending {
		return ErrAlreadyDecided
	}

	e, err := s.events.GetByID(ctx, a.EventID)
	if err != nil {
		return err
	}
	if e == nil || e.OrganizerID != org.ID {
		return ErrForbidden
	}

	if err := s.applications.Decide(ctx, applicationID, status, reason); err != nil {
		return err
	}

	ex, err := s.exhibitors.GetByID(ctx, a.ExhibitorID)
	if err == nil && ex != nil && ex.UserID != nil {
		if status == domain.ApplicationApproved {
			s.notifications.Notify(ctx, *ex.UserID, "application_approved",
				"Application approved",
				fmt.Sprintf("Your application to %q was approved.", e.Title),
				sse.EventApplicationDecided,
			)
		} else {
			s.notifications.Notify(ctx, *ex.UserID, "application_rejected",
				"Application rejected",
				fmt.Sprintf("Your application to %q was rejected: %s", e.Title, reason),
				sse.EventApplicationDecided,
			)
		}
	}

	return nil
}
