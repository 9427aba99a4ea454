package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("credentials already exist")
)

const providerName = "password"

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Register finds or creates the user for this email and attaches password
// credentials. Password accounts start with email_verified=false; the
// confirmation email flips it.
func (s *Service) Register(
	ctx context.Context,
	email string,
	password string,
) (string, error) {

	var user domain.User

	// 1. Find or create user by email
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := time.Now()
		user = domain.User{
			ID:            uuid.New(),
			Email:         strings.ToLower(email),
			EmailVerified: false,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = s.db.WithContext(ctx).Create(&user).Error
	}

	if err != nil {
		return "", err
	}

	// 2. Check if credentials already exist
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&domain.Credential{}).
		Where("user_id = ?", user.ID).
		Count(&count).Error; err != nil {
		return "", err
	}

	if count > 0 {
		return "", ErrAlreadyRegistered
	}

	// 3. Hash password
	hash, version, err := hashPassword(password)
	if err != nil {
		return "", err
	}

	// 4. Insert credentials
	now := time.Now()
	cred := domain.Credential{
		ID:           uuid.New(),
		UserID:       user.ID,
		PasswordHash: hash,
		HashVersion:  version,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&cred).Error; err != nil {
		return "", err
	}

	return user.ID.String(), nil
}

func (s *Service) Authenticate(
	ctx context.Context,
	email string,
	password string,
) (string, error) {

	var row struct {
		ID           uuid.UUID
		PasswordHash string
	}

	// 1. Find user + credentials
	err := s.db.WithContext(ctx).
		Table("users").
		Select("users.id, credentials.password_hash").
		Joins("JOIN credentials ON credentials.user_id = users.id").
		Where("LOWER(users.email) = LOWER(?)", email).
		Scan(&row).Error

	// hide whether the user exists
	if err != nil || row.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	// 2. Verify password
	if err := verifyPassword(row.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return row.ID.String(), nil
}

// ProviderName is the auth-method tag recorded on password sessions.
func ProviderName() string { return providerName }

const hashVersionBcrypt = "bcrypt"

// hashPassword bcrypts the plaintext, tagging the row with the scheme so
// a future algorithm change can migrate rows incrementally.
func hashPassword(password string) (hash, version string, err error) {
	if len(password) < 8 {
		return "", "", errors.New("password too short")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return string(b), hashVersionBcrypt, nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
