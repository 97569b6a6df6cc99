package guard

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/session"
)

type State int

const (
	Checking State = iota
	DeniedNoSession
	DeniedWrongRole
	Granted
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case DeniedNoSession:
		return "denied_no_session"
	case DeniedWrongRole:
		return "denied_wrong_role"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// SignInPath is where every denial leads.
const SignInPath = "/"

// Decision is the outcome of one navigation.
type Decision struct {
	State    State
	Redirect string
	User     *models.User
}

// Evaluate decides whether a viewer in state may see a screen restricted to
// allowed. It is pure and runs on every navigation.
func Evaluate(state session.State, allowed []models.Role) Decision {
	switch {
	case state.Loading:
		return Decision{State: Checking}
	case state.User == nil:
		return Decision{State: DeniedNoSession, Redirect: SignInPath}
	case !state.User.Role.In(allowed):
		return Decision{State: DeniedWrongRole, Redirect: SignInPath, User: state.User}
	default:
		return Decision{State: Granted, User: state.User}
	}
}

// Landing is the home screen of role.
func Landing(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "/admin/dashboard"
	case models.RoleSeller:
		return "/seller/dashboard"
	case models.RoleBuyer:
		return "/user/home"
	default:
		return SignInPath
	}
}

// Policy maps path prefixes onto the roles allowed below them. Paths that
// match no prefix are public.
type Policy map[string][]models.Role

func DefaultPolicy() Policy {
	return Policy{
		"/admin":  {models.RoleAdmin},
		"/seller": {models.RoleSeller},
		"/user":   {models.RoleBuyer},
	}
}

// Allowed returns the roles for path and whether the path is protected.
// The longest matching prefix wins.
func (p Policy) Allowed(path string) ([]models.Role, bool) {
	best := ""
	for prefix := range p {
		if (path == prefix || strings.HasPrefix(path, prefix+"/")) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return nil, false
	}
	return p[best], true
}

// Permits reports whether role may open location, a local path with an
// optional query. Anything else, including absolute URLs, is refused.
func (p Policy) Permits(location string, role models.Role) bool {
	if !strings.HasPrefix(location, "/") || strings.HasPrefix(location, "//") {
		return false
	}
	u, err := url.Parse(location)
	if err != nil || u.IsAbs() {
		return false
	}
	allowed, protected := p.Allowed(u.Path)
	return !protected || role.In(allowed)
}

// ReturnToRecorder remembers where a signed-out visitor was heading.
type ReturnToRecorder interface {
	RememberReturnTo(w http.ResponseWriter, r *http.Request, location string)
}

// Middleware enforces policy on every request. It expects the session
// loader to have put a Store in the request context.
func Middleware(policy Policy, nav ReturnToRecorder, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, protected := policy.Allowed(r.URL.Path)
			if !protected {
				next.ServeHTTP(w, r)
				return
			}

			state := session.State{Loading: true}
			if store, ok := session.FromContext(r.Context()); ok {
				state = store.Snapshot()
			}

			d := Evaluate(state, allowed)
			switch d.State {
			case Granted:
				next.ServeHTTP(w, r)
			case Checking:
				// Only reached without a loader in front; SessionLoader has already run Initialize.
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusAccepted)
				json.NewEncoder(w).Encode(map[string]string{"state": d.State.String()})
			case DeniedNoSession:
				if nav != nil && r.Method == http.MethodGet {
					nav.RememberReturnTo(w, r, r.URL.RequestURI())
				}
				logger.Info().Str("path", r.URL.Path).Msg("Navigation denied, no session")
				redirect(w, r, d.Redirect)
			case DeniedWrongRole:
				logger.Warn().
					Str("path", r.URL.Path).
					Int("user_id", d.User.ID).
					Str("role", string(d.User.Role)).
					Msg("Navigation denied, wrong role")
				redirect(w, r, d.Redirect)
			}
		})
	}
}

func redirect(w http.ResponseWriter, r *http.Request, location string) {
	code := http.StatusFound
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		code = http.StatusSeeOther
	}
	http.Redirect(w, r, location, code)
}
