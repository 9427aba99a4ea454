package reconcile

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/mocky70025/eventplatform-real-sub003/internal/apps"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/provider/line"
	"github.com/mocky70025/eventplatform-real-sub003/internal/auth/resolver"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

// Error codes surfaced to the login page. Terminal for the attempt: the
// user restarts login, nothing here retries.
const (
	ErrCodeStateMismatch  = "token-verification-failed"
	ErrCodeSessionTimeout = "session-timeout"
	ErrCodeServerError    = "server-error"
)

// StateKey namespaces handshake markers stashed under the OAuth state
// value. PendingKey namespaces the session signal the OAuth callback
// leaves for the poll below.
func StateKey(state string) string   { return "state:" + state }
func PendingKey(state string) string { return "pending:" + state }

type OutcomeKind int

const (
	OutcomeRedirect OutcomeKind = iota
	OutcomeError
)

// Outcome is the single terminal state of one reconciliation attempt:
// either a redirect (home, or cross-application) or a terminal error.
type Outcome struct {
	Kind      OutcomeKind
	Location  string // redirect target
	ErrorCode string // machine-readable error for the login page

	// Set when this attempt established a session itself (LINE family);
	// the HTTP layer issues the cookie.
	SessionID string
	ExpiresAt time.Time
}

// LineExchanger is the LINE code-for-tokens exchange.
type LineExchanger interface {
	Exchange(ctx context.Context, code string) (*line.Tokens, *auth.Identity, error)
}

// ProfileChecker reports whether a tenant profile exists for the user in
// the given application.
type ProfileChecker interface {
	Registered(ctx context.Context, userID string, app apps.Type) (bool, error)
}

type Config struct {
	PollInterval time.Duration
	PollAttempts int
	SessionTTL   time.Duration
	HomePath     string
}

// Reconciler decides, once per redirect landing, which application owns a
// freshly established session and where the browser goes next.
type Reconciler struct {
	dir      *apps.Directory
	sessions session.Store
	markers  session.MarkerStore
	pending  session.OneTimeStore
	line     LineExchanger
	resolver resolver.Resolver
	profiles ProfileChecker
	cfg      Config
	log      *logger.Logger
}

func New(
	dir *apps.Directory,
	sessions session.Store,
	markers session.MarkerStore,
	pending session.OneTimeStore,
	lineExchanger LineExchanger,
	identityResolver resolver.Resolver,
	profiles ProfileChecker,
	cfg Config,
	log *logger.Logger,
) *Reconciler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 10
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	return &Reconciler{
		dir:      dir,
		sessions: sessions,
		markers:  markers,
		pending:  pending,
		line:     lineExchanger,
		resolver: identityResolver,
		profiles: profiles,
		cfg:      cfg,
		log:      log.With("component", "Reconciler"),
	}
}

// Reconcile handles one redirect landing on currentApp. reqURL is the
// original request URL; cross-application redirects preserve its query
// and fragment verbatim.
func (r *Reconciler) Reconcile(ctx context.Context, currentApp apps.Type, reqURL *url.URL) Outcome {
	q := reqURL.Query()
	code := q.Get("code")
	state := q.Get("state")

	// Two authentication families share this landing. A code+state pair
	// is the LINE flow; everything else is the generic OAuth flow.
	if code != "" && state != "" && q.Get("provider") == "" {
		return r.reconcileLine(ctx, currentApp, code, state)
	}
	return r.reconcileOAuth(ctx, currentApp, reqURL, state)
}

func (r *Reconciler) reconcileLine(ctx context.Context, currentApp apps.Type, code, state string) Outcome {
	if r.line == nil {
		r.log.Warn("line landing without line login configured")
		return Outcome{Kind: OutcomeError, ErrorCode: ErrCodeServerError}
	}

	// Anti-replay: the state must match what was stashed before the
	// redirect, and the stash is discarded either way.
	stashed, err := r.markers.Take(ctx, StateKey(state))
	if err != nil {
		r.log.Error("state lookup failed", "error", err)
		return Outcome{Kind: OutcomeError, ErrorCode: ErrCodeServerError}
	}
	if stashed == nil {
		r.log.Warn("state verification failed", "state_present", state != "")
		return Outcome{Kind: OutcomeError, ErrorCode: ErrCodeStateMismatch}
	}

	_, identity, err := r.line.Exchange(ctx, code)
	if err != nil {
		return Outcome{Kind: OutcomeError, ErrorCode: lineErrorCode(err)}
	}

	userID, err := r.resolver.Resolve(ctx, identity)
	if err != nil {
		r.log.Error("identity resolution failed", "error", err)
		return Outcome{Kind: OutcomeError, ErrorCode: "create-user-failed"}
	}

	// Establish the session explicitly from the exchanged tokens.
	sessionID, err := session.GenerateID()
	if err != nil {
		return Outcome{Kind: OutcomeError, ErrorCode: ErrCodeServerError}
	}

	now := time.Now()
	sess := session.Session{
		SessionID: sessionID,
		UserID:    userID,
		Provider:  "line",
		App:       string(currentApp),
		CreatedAt: now,
		ExpiresAt: now.Add(r.cfg.SessionTTL),
	}
	if err := r.sessions.Create(ctx, sess); err != nil {
		r.log.Error("session create failed", "error", err)
		return Outcome{Kind: OutcomeError, ErrorCode: ErrCodeServerError}
	}

	registered := r.checkRegistered(ctx, userID, currentApp)

	r.stashSessionMarkers(ctx, sessionID, session.Markers{
		App:        string(currentApp),
		AuthMethod: "line",
		UserID:     userID,
		Email:      identity.Email,
		Registered: registered,
	})

	return Outcome{
		Kind:      OutcomeRedirect,
		Location:  r.cfg.HomePath,
		SessionID: sessionID,
		ExpiresAt: sess.ExpiresAt,
	}
}

func (r *Reconciler) reconcileOAuth(ctx context.Context, currentApp apps.Type, reqURL *url.URL, state string) Outcome {
	// The initiating application may differ from the one serving this
	// landing: all front ends share one provider callback URL. Route
	// before consuming anything.
	if state != "" {
		stashed, err := r.markers.Peek(ctx, StateKey(state))
		if err != nil {
			r.log.Error("marker lookup failed", "error", err)
		}
		if stashed != nil && stashed.App != "" && stashed.App != string(currentApp) {
			target, ok := apps.ParseType(stashed.App)
			if ok {
				loc, err := r.dir.Rehome(target, reqURL)
				if err == nil {
					// Clear only the app marker so the destination
					// does not bounce the redirect back.
					cleared := *stashed
					cleared.App = ""
					_ = r.markers.Stash(ctx, StateKey(state), cleared, 5*time.Minute)
					return Outcome{Kind: OutcomeRedirect, Location: loc}
				}
				r.log.Error("cross-app rehome failed", "error", err)
			}
		}
	}

	// Session establishment after the OAuth redirect is asynchronous, so
	// wait with a bounded poll. Budget exhausted means terminal error;
	// there is no automatic retry.
	sessionID := ""
	for attempt := 0; attempt < r.cfg.PollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Outcome{Kind: OutcomeError, ErrorCode: ErrCodeSessionTimeout}
			case <-time.After(r.cfg.PollInterval):
			}
		}

		id, err := r.pending.Peek(ctx, PendingKey(state))
		if err != nil {
			r.log.Error("pending session lookup failed", "error", err)
			continue
		}
		if id == "" {
			continue
		}

		sess, err := r.sessions.Get(ctx, id)
		if err != nil || sess == nil {
			continue
		}

		sessionID = id
		break
	}

	if sessionID == "" {
		return Outcome{Kind: OutcomeError, ErrorCode: ErrCodeSessionTimeout}
	}

	// Consume the signal; a replayed landing polls to timeout instead.
	if _, err := r.pending.Take(ctx, PendingKey(state)); err != nil {
		r.log.Error("pending session take failed", "error", err)
	}

	sess, err := r.sessions.Get(ctx, sessionID)
	if err != nil || sess == nil {
		return Outcome{Kind: OutcomeError, ErrorCode: ErrCodeServerError}
	}

	registered := r.checkRegistered(ctx, sess.UserID, currentApp)

	stashed, _ := r.markers.Take(ctx, StateKey(state))
	m := session.Markers{
		App:        string(currentApp),
		AuthMethod: sess.Provider,
		UserID:     sess.UserID,
		Registered: registered,
	}
	if stashed != nil {
		m.Email = stashed.Email
		if stashed.AuthMethod != "" {
			m.AuthMethod = stashed.AuthMethod
		}
	}
	r.stashSessionMarkers(ctx, sessionID, m)

	return Outcome{Kind: OutcomeRedirect, Location: r.cfg.HomePath}
}

// checkRegistered treats lookup failure as "profile not found", which
// routes to registration rather than blocking the login.
func (r *Reconciler) checkRegistered(ctx context.Context, userID string, app apps.Type) bool {
	registered, err := r.profiles.Registered(ctx, userID, app)
	if err != nil {
		r.log.Error("profile lookup failed", "error", err, "user_id", userID)
		return false
	}
	return registered
}

func (r *Reconciler) stashSessionMarkers(ctx context.Context, sessionID string, m session.Markers) {
	if err := r.markers.Stash(ctx, sessionID, m, r.cfg.SessionTTL); err != nil {
		r.log.Error("marker stash failed", "error", err)
	}
}

// lineErrorCode maps provider failures onto the redirect error
// vocabulary.
func lineErrorCode(err error) string {
	var xchg *line.TokenExchangeError
	if errors.As(err, &xchg) {
		return "line-token-error"
	}
	var verr *line.VerificationError
	if errors.As(err, &verr) {
		return "token-verification-failed"
	}
	switch {
	case errors.Is(err, line.ErrNoIDToken):
		return "no-id-token"
	case errors.Is(err, line.ErrNoEmail):
		return "email-not-found-in-line"
	}
	return ErrCodeServerError
}
