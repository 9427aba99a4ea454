package reconcile

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mocky70025/eventplatform-real-sub003/internal/apps"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider/line"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

// --- in-memory fakes ---

type memMarkers struct {
	mu sync.Mutex
	m  map[string]session.Markers
}

func newMemMarkers() *memMarkers {
	return &memMarkers{m: make(map[string]session.Markers)}
}

func (s *memMarkers) Stash(_ context.Context, key string, m session.Markers, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = m
	return nil
}

func (s *memMarkers) Peek(_ context.Context, key string) (*session.Markers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *memMarkers) Take(_ context.Context, key string) (*session.Markers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	delete(s.m, key)
	return &m, nil
}

func (s *memMarkers) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

type memOneTime struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemOneTime() *memOneTime {
	return &memOneTime{m: make(map[string]string)}
}

func (s *memOneTime) Put(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memOneTime) Peek(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *memOneTime) Take(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.m[key]
	delete(s.m, key)
	return v, nil
}

type memSessions struct {
	mu sync.Mutex
	m  map[string]session.Session
}

func newMemSessions() *memSessions {
	return &memSessions{m: make(map[string]session.Session)}
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

func (s *memSessions) Update(_ context.Context, sess session.Session) error {
	return s.Create(context.Background(), sess)
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

type fakeLine struct {
	identity *auth.Identity
	err      error
}

func (f *fakeLine) Exchange(context.Context, string) (*line.Tokens, *auth.Identity, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &line.Tokens{AccessToken: "at"}, f.identity, nil
}

type fakeResolver struct {
	userID string
	err    error
}

func (f *fakeResolver) Resolve(context.Context, *auth.Identity) (string, error) {
	return f.userID, f.err
}

type fakeProfiles struct {
	registered bool
	err        error
}

func (f *fakeProfiles) Registered(context.Context, string, apps.Type) (bool, error) {
	return f.registered, f.err
}

// --- harness ---

type fixture struct {
	dir      *apps.Directory
	sessions *memSessions
	markers  *memMarkers
	pending  *memOneTime
	line     *fakeLine
	resolver *fakeResolver
	profiles *fakeProfiles
	rec      *Reconciler
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	dir, err := apps.NewDirectory(
		"http://localhost:3002",
		"http://localhost:3000",
		"http://localhost:3001",
	)
	require.NoError(t, err)

	f := &fixture{
		dir:      dir,
		sessions: newMemSessions(),
		markers:  newMemMarkers(),
		pending:  newMemOneTime(),
		line:     &fakeLine{identity: &auth.Identity{Provider: "line", ProviderUserID: "U1", Email: "user@example.com", EmailVerified: true}},
		resolver: &fakeResolver{userID: "11111111-1111-1111-1111-111111111111"},
		profiles: &fakeProfiles{},
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}
	f.rec = New(dir, f.sessions, f.markers, f.pending, f.line, f.resolver, f.profiles, cfg, logger.NewNop())
	return f
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// --- LINE family ---

func TestLineLandingWithoutProviderConfigured(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	// A deployment without LINE credentials wires a nil exchanger; a
	// code+state landing must fail terminally instead of panicking.
	f.rec = New(f.dir, f.sessions, f.markers, f.pending, nil, f.resolver, f.profiles, Config{SessionTTL: time.Hour}, logger.NewNop())

	require.NoError(t, f.markers.Stash(ctx, StateKey("s1"), session.Markers{App: "organizer", AuthMethod: "line"}, time.Minute))

	out := f.rec.Reconcile(ctx, apps.Organizer, mustURL(t, "/auth/reconcile?code=c1&state=s1"))

	require.Equal(t, OutcomeError, out.Kind)
	require.Equal(t, ErrCodeServerError, out.ErrorCode)
	require.Empty(t, f.sessions.m)
}

func TestLineReconcileEstablishesSession(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	require.NoError(t, f.markers.Stash(ctx, StateKey("s1"), session.Markers{App: "organizer", AuthMethod: "line"}, time.Minute))

	out := f.rec.Reconcile(ctx, apps.Organizer, mustURL(t, "/auth/reconcile?code=c1&state=s1"))

	require.Equal(t, OutcomeRedirect, out.Kind)
	require.NotEmpty(t, out.SessionID)
	require.Equal(t, "/", out.Location)

	sess, err := f.sessions.Get(ctx, out.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "line", sess.Provider)
	require.Equal(t, f.resolver.userID, sess.UserID)

	// Handshake markers migrated under the session ID.
	m, err := f.markers.Peek(ctx, out.SessionID)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "line", m.AuthMethod)
	require.Equal(t, "user@example.com", m.Email)

	// The state stash is consumed either way.
	gone, err := f.markers.Peek(ctx, StateKey("s1"))
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestLineStateMismatchIsTerminal(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	// Nothing stashed for this state.
	out := f.rec.Reconcile(ctx, apps.Organizer, mustURL(t, "/auth/reconcile?code=c1&state=forged"))

	require.Equal(t, OutcomeError, out.Kind)
	require.Equal(t, ErrCodeStateMismatch, out.ErrorCode)
	require.Empty(t, out.SessionID)
	require.Empty(t, f.sessions.m)
}

func TestLineExchangeFailureCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"token exchange", &line.TokenExchangeError{StatusCode: 400, Body: "bad code"}, "line-token-error"},
		{"verification", &line.VerificationError{Err: errors.New("bad sig")}, "token-verification-failed"},
		{"no id token", line.ErrNoIDToken, "no-id-token"},
		{"no email", line.ErrNoEmail, "email-not-found-in-line"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, Config{})
			ctx := context.Background()
			f.line.err = tc.err

			require.NoError(t, f.markers.Stash(ctx, StateKey("s1"), session.Markers{App: "organizer"}, time.Minute))

			out := f.rec.Reconcile(ctx, apps.Organizer, mustURL(t, "/auth/reconcile?code=c1&state=s1"))
			require.Equal(t, OutcomeError, out.Kind)
			require.Equal(t, tc.code, out.ErrorCode)
		})
	}
}

func TestLineRegisteredFlagFollowsProfile(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.profiles.registered = true

	require.NoError(t, f.markers.Stash(ctx, StateKey("s1"), session.Markers{App: "organizer"}, time.Minute))
	out := f.rec.Reconcile(ctx, apps.Organizer, mustURL(t, "/auth/reconcile?code=c1&state=s1"))
	require.Equal(t, OutcomeRedirect, out.Kind)

	m, _ := f.markers.Peek(ctx, out.SessionID)
	require.NotNil(t, m)
	require.True(t, m.Registered)
}

func TestProfileLookupFailureMeansNotRegistered(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.profiles.err = errors.New("db down")

	require.NoError(t, f.markers.Stash(ctx, StateKey("s1"), session.Markers{App: "organizer"}, time.Minute))
	out := f.rec.Reconcile(ctx, apps.Organizer, mustURL(t, "/auth/reconcile?code=c1&state=s1"))
	require.Equal(t, OutcomeRedirect, out.Kind)

	m, _ := f.markers.Peek(ctx, out.SessionID)
	require.NotNil(t, m)
	require.False(t, m.Registered)
}

// --- OAuth family ---

func TestOAuthRedirectsToInitiatingApp(t *testing.T) {
	f := newFixture(t, Config{PollInterval: time.Millisecond, PollAttempts: 2})
	ctx := context.Background()

	// The handshake started on the exhibitor app, but the redirect
	// landed on the organizer app.
	require.NoError(t, f.markers.Stash(ctx, StateKey("s2"), session.Markers{App: "exhibitor", AuthMethod: "google"}, time.Minute))

	reqURL := mustURL(t, "http://localhost:3000/auth/reconcile?provider=google&state=s2#top")
	out := f.rec.Reconcile(ctx, apps.Organizer, reqURL)

	require.Equal(t, OutcomeRedirect, out.Kind)
	require.Equal(t, "http://localhost:3001/auth/reconcile?provider=google&state=s2#top", out.Location)

	// The app marker is cleared so the destination does not bounce.
	m, err := f.markers.Peek(ctx, StateKey("s2"))
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Empty(t, m.App)
	require.Equal(t, "google", m.AuthMethod)
}

func TestOAuthPollFindsPendingSession(t *testing.T) {
	f := newFixture(t, Config{PollInterval: time.Millisecond, PollAttempts: 10})
	ctx := context.Background()

	require.NoError(t, f.sessions.Create(ctx, session.Session{
		SessionID: "sess-1",
		UserID:    "11111111-1111-1111-1111-111111111111",
		Provider:  "google",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, f.pending.Put(ctx, PendingKey("s3"), "sess-1", time.Minute))
	require.NoError(t, f.markers.Stash(ctx, StateKey("s3"), session.Markers{App: "organizer", AuthMethod: "google", Email: "user@example.com"}, time.Minute))

	out := f.rec.Reconcile(ctx, apps.Organizer, mustURL(t, "/auth/reconcile?provider=google&state=s3"))

	require.Equal(t, OutcomeRedirect, out.Kind)
	require.Equal(t, "/", out.Location)

	// Pending signal consumed; a replayed landing cannot reuse it.
	v, err := f.pending.Peek(ctx, PendingKey("s3"))
	require.NoError(t, err)
	require.Empty(t, v)

	// Markers migrated from state key to session key.
	m, err := f.markers.Peek(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "user@example.com", m.Email)

	gone, err := f.markers.Peek(ctx, StateKey("s3"))
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestOAuthPollTimesOutWithinBudget(t *testing.T) {
	f := newFixture(t, Config{PollInterval: time.Millisecond, PollAttempts: 5})
	ctx := context.Background()

	start := time.Now()
	out := f.rec.Reconcile(ctx, apps.Organizer, mustURL(t, "/auth/reconcile?provider=google&state=never"))
	elapsed := time.Since(start)

	require.Equal(t, OutcomeError, out.Kind)
	require.Equal(t, ErrCodeSessionTimeout, out.ErrorCode)
	// 5 attempts x 1ms plus slack: the poll must not run unbounded.
	require.Less(t, elapsed, time.Second)
}

func TestOAuthPollHonorsContextCancel(t *testing.T) {
	f := newFixture(t, Config{PollInterval: 50 * time.Millisecond, PollAttempts: 100})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	out := f.rec.Reconcile(ctx, apps.Organizer, mustURL(t, "/auth/reconcile?provider=google&state=never"))
	require.Equal(t, OutcomeError, out.Kind)
	require.Equal(t, ErrCodeSessionTimeout, out.ErrorCode)
}
