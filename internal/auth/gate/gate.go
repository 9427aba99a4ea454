package gate

import (
	"context"

	"github.com/google/uuid"

	"github.com/mocky70025/eventplatform-real-sub003/internal/apps"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
	"github.com/mocky70025/eventplatform-real-sub003/internal/repos"
	"github.com/mocky70025/eventplatform-real-sub003/internal/session"
)

// View is the single screen the home route shows for the current
// session state.
type View string

const (
	ViewWelcome      View = "welcome"       // no session
	ViewConfirmEmail View = "confirm_email" // password account, email unconfirmed
	ViewRegister     View = "register"      // session but no tenant profile
	ViewDashboard    View = "dashboard"
)

type Result struct {
	View           View   `json:"view"`
	UserID         string `json:"user_id,omitempty"`
	Email          string `json:"email,omitempty"`
	Registered     bool   `json:"registered"`
	CanCreateEvent bool   `json:"can_create_event"`
	Notice         string `json:"notice,omitempty"`
}

const approvalNotice = "Your organizer account is awaiting administrator approval. Event creation is disabled until then."

// Gate re-derives the session and profile state on every call. Session
// markers are a cache and are deliberately not consulted here.
type Gate struct {
	sessions   session.Store
	users      repos.UserRepo
	organizers repos.OrganizerRepo
	exhibitors repos.ExhibitorRepo
	log        *logger.Logger
}

func New(
	sessions session.Store,
	users repos.UserRepo,
	organizers repos.OrganizerRepo,
	exhibitors repos.ExhibitorRepo,
	log *logger.Logger,
) *Gate {
	return &Gate{
		sessions:   sessions,
		users:      users,
		organizers: organizers,
		exhibitors: exhibitors,
		log:        log.With("component", "Gate"),
	}
}

// Resolve returns exactly one view for the session (possibly empty) on
// the given application.
func (g *Gate) Resolve(ctx context.Context, sessionID string, app apps.Type) (*Result, error) {
	if sessionID == "" {
		return &Result{View: ViewWelcome}, nil
	}

	sess, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return &Result{View: ViewWelcome}, nil
	}

	userID, err := uuid.Parse(sess.UserID)
	if err != nil {
		g.log.Warn("session carries malformed user id", "session_id", sess.SessionID)
		return &Result{View: ViewWelcome}, nil
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Session outlived its user row.
		return &Result{View: ViewWelcome}, nil
	}

	if sess.Provider == "password" && !user.EmailVerified {
		return &Result{
			View:   ViewConfirmEmail,
			UserID: user.ID.String(),
			Email:  user.Email,
		}, nil
	}

	registered, canCreate, notice := g.profileState(ctx, userID, app)

	if !registered {
		return &Result{
			View:   ViewRegister,
			UserID: user.ID.String(),
			Email:  user.Email,
		}, nil
	}

	return &Result{
		View:           ViewDashboard,
		UserID:         user.ID.String(),
		Email:          user.Email,
		Registered:     true,
		CanCreateEvent: canCreate,
		Notice:         notice,
	}, nil
}

// profileState checks the tenant profile for the application. Lookup
// failure is logged and treated as "no profile", which routes to
// registration instead of blocking.
func (g *Gate) profileState(ctx context.Context, userID uuid.UUID, app apps.Type) (registered, canCreate bool, notice string) {
	switch app {
	case apps.Organizer:
		org, err := g.organizers.GetByUserID(ctx, userID)
		if err != nil {
			g.log.Error("organizer lookup failed", "error", err, "user_id", userID)
			return false, false, ""
		}
		if org == nil {
			return false, false, ""
		}
		if !org.IsApproved {
			return true, false, approvalNotice
		}
		return true, true, ""

	case apps.Exhibitor:
		ex, err := g.exhibitors.GetByUserID(ctx, userID)
		if err != nil {
			g.log.Error("exhibitor lookup failed", "error", err, "user_id", userID)
			return false, false, ""
		}
		return ex != nil, false, ""

	default:
		// Admin app has no tenant profile to gate on.
		return true, false, ""
	}
}

// ProfileLookup adapts the gate's profile check for the reconciler.
type ProfileLookup struct {
	organizers repos.OrganizerRepo
	exhibitors repos.ExhibitorRepo
}

func NewProfileLookup(organizers repos.OrganizerRepo, exhibitors repos.ExhibitorRepo) *ProfileLookup {
	return &ProfileLookup{organizers: organizers, exhibitors: exhibitors}
}

func (p *ProfileLookup) Registered(ctx context.Context, userID string, app apps.Type) (bool, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return false, err
	}
	switch app {
	case apps.Organizer:
		org, err := p.organizers.GetByUserID(ctx, id)
		return org != nil, err
	case apps.Exhibitor:
		ex, err := p.exhibitors.GetByUserID(ctx, id)
		return ex != nil, err
	default:
		return true, nil
	}
}
