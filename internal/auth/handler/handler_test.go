package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mocky70025/eventplatform-real-sub003/internal/apps"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/credentials"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/gate"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider/line"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/reconcile"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/resolver"
	"github.com/mocky70025/eventplatform-real-sub003/internal/db"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/mail"
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

type memMarkers struct {
	mu sync.Mutex
	m  map[string]session.Markers
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

func (s *memMarkers) Take(ctx context.Context, key string) (*session.Markers, error) {
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

type fakeOAuthProvider struct{}

func (fakeOAuthProvider) Name() string { return "fake" }

func (fakeOAuthProvider) AuthCodeURL(state, codeChallenge string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (fakeOAuthProvider) ExchangeCode(context.Context, string, string) (*auth.Identity, error) {
	return &auth.Identity{
		Provider:       "fake",
		ProviderUserID: "F1",
		Email:          "oauth@example.com",
		EmailVerified:  true,
	}, nil
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (c *captureMailer) Send(_ context.Context, msg mail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) last(t *testing.T) mail.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent)
	return c.sent[len(c.sent)-1]
}

type fixture struct {
	router *gin.Engine
	mailer *captureMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(gdb))

	log := logger.NewNop()
	sessions := &memSessions{m: make(map[string]session.Session)}
	markers := &memMarkers{m: make(map[string]session.Markers)}
	onetime := &memOneTime{m: make(map[string]string)}
	mailer := &captureMailer{}

	dir, err := apps.NewDirectory(
		"http://localhost:3002",
		"http://localhost:3000",
		"http://localhost:3001",
	)
	require.NoError(t, err)

	lineProvider, err := line.New("1234567890", "channel-secret", "http://localhost:8080/auth/callback/line")
	require.NoError(t, err)

	userRepo := repos.NewUserRepo(gdb, log)
	organizerRepo := repos.NewOrganizerRepo(gdb, log)
	exhibitorRepo := repos.NewExhibitorRepo(gdb, log)
	identityResolver := resolver.NewGormResolver(gdb)
	profiles := gate.NewProfileLookup(organizerRepo, exhibitorRepo)

	reconciler := reconcile.New(
		dir, sessions, markers, onetime,
		lineProvider, identityResolver, profiles,
		reconcile.Config{PollInterval: time.Millisecond, PollAttempts: 3, SessionTTL: time.Hour},
		log,
	)

	g := gate.New(sessions, userRepo, organizerRepo, exhibitorRepo, log)

	h := NewHandler(
		provider.NewRegistry(fakeOAuthProvider{}),
		lineProvider,
		sessions, markers, onetime,
		identityResolver,
		credentials.NewService(gdb),
		reconciler,
		g,
		dir,
		userRepo,
		mailer,
		Config{
			BaseURL:    "http://localhost:8080",
			SessionTTL: time.Hour,
		},
		log,
	)

	router := gin.New()
	h.RegisterRoutes(router)
	return &fixture{router: router, mailer: mailer}
}

func (f *fixture) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

// linkToken pulls the one-time token out of an emailed link.
func linkToken(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "http")
	require.GreaterOrEqual(t, i, 0)
	u, err := url.Parse(strings.TrimSpace(body[i:]))
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func gateView(t *testing.T, f *fixture, cookies ...*http.Cookie) map[string]any {
	t.Helper()
	w := f.do(t, http.MethodGet, "/gate?app=organizer", "", cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRegisterThenConfirmEmail(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/register?app=organizer",
		`{"email":"new@example.com","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	cookie := sessionCookie(t, w)

	// Signed in, but the home route demands confirmation first.
	require.Equal(t, "confirm_email", gateView(t, f, cookie)["view"])

	token := linkToken(t, f.mailer.last(t).Body)
	w = f.do(t, http.MethodGet, "/auth/confirm?token="+url.QueryEscape(token), "", cookie)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	// Confirmed, no tenant profile yet.
	require.Equal(t, "register", gateView(t, f, cookie)["view"])

	// The link is single use.
	w = f.do(t, http.MethodGet, "/auth/confirm?token="+url.QueryEscape(token), "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, w.Header().Get("Location"), "error=token-verification-failed")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/register",
		`{"email":"taro@example.com","password":"correcthorse1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login",
		`{"email":"taro@example.com","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login",
		`{"email":"taro@example.com","password":"correcthorse1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	sessionCookie(t, w)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/register",
		`{"email":"taro@example.com","password":"correcthorse1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/auth/register",
		`{"email":"taro@example.com","password":"correcthorse1"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/register",
		`{"email":"taro@example.com","password":"correcthorse1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	cookie := sessionCookie(t, w)

	w = f.do(t, http.MethodPost, "/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, "welcome", gateView(t, f, cookie)["view"])
}

func TestGateWithoutSessionShowsWelcome(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, "welcome", gateView(t, f)["view"])
}

func TestOAuthCallbackRejectsForgedState(t *testing.T) {
	f := newFixture(t)

	// Cookie and query agree, but the server never issued this state:
	// no marker stash exists for it.
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback/fake?state=forged&code=c1", nil)
	req.AddCookie(&http.Cookie{Name: "__oauth_state", Value: "forged"})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, w.Header().Get("Location"), "error=token-verification-failed")
}

func TestOAuthCallbackAcceptsIssuedState(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/oauth/login/fake?app=organizer", "")
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	req := httptest.NewRequest(http.MethodGet,
		"/oauth/callback/fake?state="+url.QueryEscape(state)+"&code=c1", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w2 := httptest.NewRecorder()
	f.router.ServeHTTP(w2, req)

	require.Equal(t, http.StatusFound, w2.Code)
	require.Contains(t, w2.Header().Get("Location"), "/auth/reconcile?")
	sessionCookie(t, w2)
}

func TestLineRoutesWithoutProviderConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// A deployment without LINE credentials carries a nil provider; the
	// LINE routes answer 404 instead of crashing at startup.
	h := NewHandler(
		provider.NewRegistry(), nil,
		nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
		Config{}, logger.NewNop(),
	)
	router := gin.New()
	h.RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/line/login", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback/line?code=c&state=s", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMagicLinkRoundTrip(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/magic-link", `{"email":"link@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	token := linkToken(t, f.mailer.last(t).Body)
	w = f.do(t, http.MethodGet, "/auth/verify?token="+url.QueryEscape(token), "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
	cookie := sessionCookie(t, w)

	// Magic-link identities arrive email-verified.
	require.Equal(t, "register", gateView(t, f, cookie)["view"])

	// Replaying the link never yields a second session.
	w = f.do(t, http.MethodGet, "/auth/verify?token="+url.QueryEscape(token), "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, w.Header().Get("Location"), "error=magic-link-failed")
}
