package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"event-site/internal/auth"
	"event-site/internal/data"
	"event-site/internal/logger"
	"event-site/internal/session"

	"github.com/casbin/casbin/v2"
)

// UserLoader resolves the user stored in a session.
type UserLoader interface {
	UserByID(ctx context.Context, id int64) (*data.User, error)
}

// LoadUser puts the signed-in user, or an anonymous one, into the request
// context. Sessions pointing at a deleted or demoted user are cleared.
func LoadUser(sm session.Manager, users UserLoader, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &UserInfo{Role: auth.RoleAnonymous}
			if id := sm.GetInt64(r.Context(), session.UserIDKey); id != 0 {
				user, err := users.UserByID(r.Context(), id)
				switch {
				case err == nil && user.IsAdmin:
					info = &UserInfo{ID: user.ID, Username: user.Username, Role: auth.RoleAdmin}
				case err == nil || errors.Is(err, data.ErrNotFound):
					sm.Remove(r.Context(), session.UserIDKey)
				default:
					log.Error(err, "Failed to load session user")
				}
			}
			next.ServeHTTP(w, r.WithContext(SetUserInfo(r.Context(), info)))
		})
	}
}

// Authorizer checks the request against the Casbin policies using the role
// from the request context. Anonymous page requests that are denied are
// sent to the login form; API requests get a JSON error.
func Authorizer(e casbin.IEnforcer, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserInfo(r.Context())

			allowed, err := e.Enforce(user.Role, r.URL.Path, r.Method)
			if err != nil {
				log.Error(err, "Authorization check failed")
				http.Error(w, "Authorization error", http.StatusInternalServerError)
				return
			}
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			switch {
			case strings.HasPrefix(r.URL.Path, "/admin/api/"):
				status := http.StatusForbidden
				if user.Role == auth.RoleAnonymous {
					status = http.StatusUnauthorized
				}
				WriteJSONError(w, status, http.StatusText(status))
			case user.Role == auth.RoleAnonymous && r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/admin"):
				http.Redirect(w, r, "/admin/login", http.StatusFound)
			default:
				http.Error(w, "Forbidden", http.StatusForbidden)
			}
		})
	}
}
