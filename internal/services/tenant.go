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

// TenantService owns organizer and exhibitor profiles: registration by
// the signed-in user, listing by admins, and organizer approval.
type TenantService interface {
	RegisterOrganizer(ctx context.Context, userID uuid.UUID, in OrganizerInput) (*domain.Organizer, error)
	RegisterExhibitor(ctx context.Context, userID uuid.UUID, in ExhibitorInput) (*domain.Exhibitor, error)
	GetOrganizerByUser(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error)
	GetExhibitorByUser(ctx context.Context, userID uuid.UUID) (*domain.Exhibitor, error)
	UpdateOrganizer(ctx context.Context, userID uuid.UUID, in OrganizerInput) (*domain.Organizer, error)
	UpdateExhibitor(ctx context.Context, userID uuid.UUID, in ExhibitorInput) (*domain.Exhibitor, error)

	ListOrganizers(ctx context.Context) ([]*domain.Organizer, error)
	ListExhibitors(ctx context.Context) ([]*domain.Exhibitor, error)
	ApproveOrganizer(ctx context.Context, actorID, organizerID uuid.UUID) error
}

type OrganizerInput struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
}

type ExhibitorInput struct {
	StoreName   string `json:"store_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type tenantService struct {
	organizers    repos.OrganizerRepo
	exhibitors    repos.ExhibitorRepo
	adminLogs     repos.AdminLogRepo
	notifications NotificationService
	log           *logger.Logger
}

func NewTenantService(
	organizers repos.OrganizerRepo,
	exhibitors repos.ExhibitorRepo,
	adminLogs repos.AdminLogRepo,
	notifications NotificationService,
	baseLog *logger.Logger,
) TenantService {
	return &tenantService{
		organizers:    organizers,
		exhibitors:    exhibitors,
		adminLogs:     adminLogs,
		notifications: notifications,
		log:           baseLog.With("service", "TenantService"),
	}
}

func (s *tenantService) RegisterOrganizer(ctx context.Context, userID uuid.UUID, in OrganizerInput) (*domain.Organizer, error) {
	existing, err := s.organizers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrProfileExists
	}

	now := time.Now()
	uid := userID
	org := &domain.Organizer{
		ID:           uuid.New(),
		UserID:       &uid,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Organization: in.Organization,
		IsApproved:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.organizers.Create(ctx, org); err != nil {
		return nil, err
	}

	s.log.Info("organizer registered", "organizer_id", org.ID, "user_id", userID)
	return org, nil
}

func (s *tenantService) RegisterExhibitor(ctx context.Context, userID uuid.UUID, in ExhibitorInput) (*domain.Exhibitor, error) {
	existing, err := s.exhibitors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrProfileExists
	}

	now := time.Now()
	uid := userID
	ex := &domain.Exhibitor{
		ID:          uuid.New(),
		UserID:      &uid,
		StoreName:   in.StoreName,
		Email:       in.Email,
		Phone:       in.Phone,
		Category:    in.Category,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.exhibitors.Create(ctx, ex); err != nil {
		return nil, err
	}

	s.log.Info("exhibitor registered", "exhibitor_id", ex.ID, "user_id", userID)
	return ex, nil
}

func (s *tenantService) GetOrganizerByUser(ctx context.Context, userID uuid.UUID) (*domain.Organizer, error) {
	org, err := s.organizers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
	}
	return org, nil
}

func (s *tenantService) GetExhibitorByUser(ctx context.Context, userID uuid.UUID) (*domain.Exhibitor, error) {
	ex, err := s.exhibitors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ex == nil {
		return nil, ErrNotFound
	}
	return ex, nil
}

func (s *tenantService) UpdateOrganizer(ctx context.Context, userID uuid.UUID, in OrganizerInput) (*domain.Organizer, error) {
	org, err := s.GetOrganizerByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	org.Name = in.Name
	org.Email = in.Email
	org.Phone = in.Phone
	org.Organization = in.Organization
	org.UpdatedAt = time.Now()

	if err := s.organizers.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *tenantService) UpdateExhibitor(ctx context.Context, userID uuid.UUID, in ExhibitorInput) (*domain.Exhibitor, error) {
	ex, err := s.GetExhibitorByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ex.StoreName = in.StoreName
	ex.Email = in.Email
	ex.Phone = in.Phone
	ex.Category = in.Category
	ex.Description = in.Description
	ex.UpdatedAt = time.Now()

	if err := s.exhibitors.Update(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

func (s *tenantService) ListOrganizers(ctx context.Context) ([]*domain.Organizer, error) {
	return s.organizers.List(ctx)
}

func (s *tenantService) ListExhibitors(ctx context.Context) ([]*domain.Exhibitor, error) {
	return s.exhibitors.List(ctx)
}

// ApproveOrganizer flips the approval flag, records the admin action and
// notifies the organizer's account.
func (s *tenantService) ApproveOrganizer(ctx context.Context, actorID, organizerID uuid.UUID) error {
	org, err := s.organizers.GetByID(ctx, organizerID)
	if err != nil {
		return err
	}
	if org == nil {
		return ErrNotFound
	}

	if err := s.organizers.SetApproved(ctx, organizerID, true); err != nil {
		return err
	}

	if err := s.adminLogs.Append(ctx, &domain.AdminLog{
		ID:        uuid.New(),
		ActorID:   actorID,
		Action:    "organizer.approve",
		TargetID:  organizerID,
		Detail:    fmt.Sprintf("approved organizer %q", org.Name),
		CreatedAt: time.Now(),
	}); err != nil {
		s.log.Error("admin log append failed", "error", err, "organizer_id", organizerID)
	}

	if org.UserID != nil {
		s.notifications.Notify(ctx, *org.UserID, "organizer_approved",
			"Account approved",
			"Your organizer account has been approved. You can now create events.",
			sse.EventNotificationCreated,
		)
	}

	s.log.Info("organizer approved", "organizer_id", organizerID, "actor_id", actorID)
	return nil
}
