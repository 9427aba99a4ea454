package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mocky70025/eventplatform-real-sub003/internal/apps"
	"github.com/mocky70025/eventplatform-real-sub003/internal/db"
	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/repos"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

type memSessions struct {
	mu sync.Mutex
	m  map[string]session.Session
}

func (s *memSessions) Create(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.SessionID] = sess
	return nil
}

func (s *memSessions) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *memSessions) Update(ctx context.Context, sess session.Session) error {
	return s.Create(ctx, sess)
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

type fixture struct {
	gdb      *gorm.DB
	sessions *memSessions
	gate     *Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(gdb))

	log := logger.NewNop()
	sessions := &memSessions{m: make(map[string]session.Session)}
	g := New(
		sessions,
		repos.NewUserRepo(gdb, log),
		repos.NewOrganizerRepo(gdb, log),
		repos.NewExhibitorRepo(gdb, log),
		log,
	)
	return &fixture{gdb: gdb, sessions: sessions, gate: g}
}

func (f *fixture) createUser(t *testing.T, email string, verified bool) uuid.UUID {
	t.Helper()
	now := time.Now()
	u := domain.User{
		ID:            uuid.New(),
		Email:         email,
		EmailVerified: verified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.gdb.Create(&u).Error)
	return u.ID
}

func (f *fixture) startSession(t *testing.T, userID uuid.UUID, provider string) string {
	t.Helper()
	id, err := session.GenerateID()
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, f.sessions.Create(context.Background(), session.Session{
		SessionID: id,
		UserID:    userID.String(),
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))
	return id
}

func TestNoSessionShowsWelcome(t *testing.T) {
	f := newFixture(t)

	res, err := f.gate.Resolve(context.Background(), "", apps.Organizer)
	require.NoError(t, err)
	require.Equal(t, ViewWelcome, res.View)

	res, err = f.gate.Resolve(context.Background(), "no-such-session", apps.Organizer)
	require.NoError(t, err)
	require.Equal(t, ViewWelcome, res.View)
}

func TestUnconfirmedPasswordAccountShowsConfirmEmail(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, "new@example.com", false)
	sid := f.startSession(t, userID, "password")

	res, err := f.gate.Resolve(context.Background(), sid, apps.Organizer)
	require.NoError(t, err)
	require.Equal(t, ViewConfirmEmail, res.View)
	require.Equal(t, "new@example.com", res.Email)
}

func TestUnverifiedOAuthAccountSkipsConfirmEmail(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, "line@example.com", false)
	sid := f.startSession(t, userID, "line")

	res, err := f.gate.Resolve(context.Background(), sid, apps.Organizer)
	require.NoError(t, err)
	// Only password accounts gate on confirmation.
	require.Equal(t, ViewRegister, res.View)
}

func TestSessionWithoutProfileShowsRegisterNotDashboard(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, "fresh@example.com", true)
	sid := f.startSession(t, userID, "line")

	res, err := f.gate.Resolve(context.Background(), sid, apps.Organizer)
	require.NoError(t, err)
	require.Equal(t, ViewRegister, res.View)
	require.False(t, res.Registered)
}

func TestUnapprovedOrganizerDashboardBlocksEventCreation(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, "org@example.com", true)
	sid := f.startSession(t, userID, "line")

	uid := userID
	now := time.Now()
	require.NoError(t, f.gdb.Create(&domain.Organizer{
		ID:         uuid.New(),
		UserID:     &uid,
		Name:       "Org",
		Email:      "org@example.com",
		IsApproved: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)

	res, err := f.gate.Resolve(context.Background(), sid, apps.Organizer)
	require.NoError(t, err)
	require.Equal(t, ViewDashboard, res.View)
	require.True(t, res.Registered)
	require.False(t, res.CanCreateEvent)
	require.NotEmpty(t, res.Notice)
}

func TestApprovedOrganizerCanCreateEvents(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, "org@example.com", true)
	sid := f.startSession(t, userID, "line")

	uid := userID
	now := time.Now()
	require.NoError(t, f.gdb.Create(&domain.Organizer{
		ID:         uuid.New(),
		UserID:     &uid,
		Name:       "Org",
		Email:      "org@example.com",
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)

	res, err := f.gate.Resolve(context.Background(), sid, apps.Organizer)
	require.NoError(t, err)
	require.Equal(t, ViewDashboard, res.View)
	require.True(t, res.CanCreateEvent)
	require.Empty(t, res.Notice)
}

func TestExhibitorProfileGatesOnItsOwnApp(t *testing.T) {
	f := newFixture(t)
	userID := f.createUser(t, "store@example.com", true)
	sid := f.startSession(t, userID, "line")

	uid := userID
	now := time.Now()
	require.NoError(t, f.gdb.Create(&domain.Exhibitor{
		ID:        uuid.New(),
		UserID:    &uid,
		StoreName: "Store",
		Email:     "store@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)

	res, err := f.gate.Resolve(context.Background(), sid, apps.Exhibitor)
	require.NoError(t, err)
	require.Equal(t, ViewDashboard, res.View)

	// The same account has no organizer profile, so the organizer app
	// still routes to registration.
	res, err = f.gate.Resolve(context.Background(), sid, apps.Organizer)
	require.NoError(t, err)
	require.Equal(t, ViewRegister, res.View)
}
