package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/mocky70025/eventplatform-real-sub003/internal/docverify"
	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/repos"
	"github.com/mocky70025/eventplatform-real-sub003/internal/storage"
)

// DocumentService stores uploaded license/insurance images and runs the
// expiration-date check on them. Verification happens inline on upload;
// an unreadable or expired result still leaves the document queued for
// manual admin review.
type DocumentService interface {
	Upload(ctx context.Context, userID uuid.UUID, in DocumentUpload) (*domain.Document, error)
	ListOwn(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error)

	ListPendingReview(ctx context.Context) ([]*domain.Document, error)
	Review(ctx context.Context, actorID, documentID uuid.UUID, approve bool, note string) error
}

type DocumentUpload struct {
	Kind        string
	FileName    string
	ContentType string
	Data        io.Reader
}

type documentService struct {
	documents  repos.DocumentRepo
	exhibitors repos.ExhibitorRepo
	adminLogs  repos.AdminLogRepo
	bucket     storage.BucketService
	verifier   docverify.Verifier
	log        *logger.Logger
}

func NewDocumentService(
	documents repos.DocumentRepo,
	exhibitors repos.ExhibitorRepo,
	adminLogs repos.AdminLogRepo,
	bucket storage.BucketService,
	verifier docverify.Verifier,
	baseLog *logger.Logger,
) DocumentService {
	return &documentService{
		documents:  documents,
		exhibitors: exhibitors,
		adminLogs:  adminLogs,
		bucket:     bucket,
		verifier:   verifier,
		log:        baseLog.With("service", "DocumentService"),
	}
}

func (s *documentService) Upload(ctx context.Context, userID uuid.UUID, in DocumentUpload) (*domain.Document, error) {
	ex, err := s.exhibitors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ex == nil {
		return nil, ErrNotFound
	}

	data, err := io.ReadAll(in.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	docID := uuid.New()
	key := fmt.Sprintf("documents/%s/%s/%s", ex.ID, in.Kind, docID)
	if err := s.bucket.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &domain.Document{
		ID:          docID,
		ExhibitorID: ex.ID,
		Kind:        in.Kind,
		BucketKey:   key,
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Status:      domain.DocumentPendingReview,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.verify(ctx, doc, data)
	return doc, nil
}

// verify runs the AI extraction and records the result. Failures leave
// the document in pending review, never block the upload.
func (s *documentService) verify(ctx context.Context, doc *domain.Document, data []byte) {
	if s.verifier == nil {
		return
	}

	result, err := s.verifier.ExtractExpiry(ctx, data, doc.ContentType)
	if err != nil {
		s.log.Error("document verification failed", "error", err, "document_id", doc.ID)
		return
	}

	status := domain.DocumentPendingReview
	note := ""
	switch {
	case !result.Readable:
		status = domain.DocumentUnreadable
		note = "expiration date could not be read"
	case result.ExpiryDate != nil && result.ExpiryDate.Before(time.Now()):
		status = domain.DocumentExpired
		note = "document expired " + result.ExpiryDate.Format("2006-01-02")
	case result.ExpiryDate != nil:
		status = domain.DocumentVerified
	}

	if err := s.documents.SetVerification(ctx, doc.ID, status, result.ExpiryDate, note); err != nil {
		s.log.Error("document status update failed", "error", err, "document_id", doc.ID)
		return
	}

	doc.Status = status
	doc.ExpiresAt = result.ExpiryDate
	doc.ReviewNote = note
}

func (s *documentService) ListOwn(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	ex, err := s.exhibitors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ex == nil {
		return nil, ErrNotFound
	}
	return s.documents.ListByExhibitor(ctx, ex.ID)
}

func (s *documentService) ListPendingReview(ctx context.Context) ([]*domain.Document, error) {
	return s.documents.ListPendingReview(ctx)
}

// Review is the manual admin decision for documents the automatic check
// could not settle.
func (s *documentService) Review(ctx context.Context, actorID, documentID uuid.UUID, approve bool, note string) error {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}

	status := domain.DocumentVerified
	action := "document.verify"
	if !approve {
		status = domain.DocumentUnreadable
		action = "document.reject"
	}

	if err := s.documents.SetVerification(ctx, documentID, status, doc.ExpiresAt, note); err != nil {
		return err
	}

	if err := s.adminLogs.Append(ctx, &domain.AdminLog{
		ID:        uuid.New(),
		ActorID:   actorID,
		Action:    action,
		TargetID:  documentID,
		Detail:    note,
		CreatedAt: time.Now(),
	}); err != nil {
		s.log.Error("admin log append failed", "error", err, "document_id", documentID)
	}

	return nil
}
