package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

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

func protected(t *testing.T, store session.Store) (http.Handler, *string) {
	t.Helper()
	var sawUserID string
	mw := NewAuthMiddleware(store)
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		sawUserID = id
		w.WriteHeader(http.StatusOK)
	}))
	return h, &sawUserID
}

func TestRequireAuthRejectsMissingCookie(t *testing.T) {
	store := &memSessions{m: make(map[string]session.Session)}
	h, _ := protected(t, store)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthPassesValidSession(t *testing.T) {
	store := &memSessions{m: make(map[string]session.Session)}
	now := time.Now()
	require.NoError(t, store.Create(context.Background(), session.Session{
		SessionID: "sess-1",
		UserID:    "user-1",
		ExpiresAt: now.Add(time.Hour),
	}))
	h, sawUserID := protected(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sess-1"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "user-1", *sawUserID)
}

func TestRequireAuthEvictsExpiredSession(t *testing.T) {
	store := &memSessions{m: make(map[string]session.Session)}
	require.NoError(t, store.Create(context.Background(), session.Session{
		SessionID: "stale",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	h, _ := protected(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "stale"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	// The stale row is gone; a retry is indistinguishable from no session.
	got, err := store.Get(context.Background(), "stale")
	require.NoError(t, err)
	require.Nil(t, got)
}
