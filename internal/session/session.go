// Package session abstracts the session manager used by the HTTP layer.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

// Manager is an interface that abstracts the session management implementation.
// This allows for easier testing and dependency injection.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetString(ctx context.Context, key string) string
	GetInt64(ctx context.Context, key string) int64
	PopString(ctx context.Context, key string) string
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
	Remove(ctx context.Context, key string)
}

// Keys stored in the session.
const (
	UserIDKey     = "user_id"
	FlashKey      = "flash"
	FlashErrorKey = "flash_error"
	OIDCStateKey  = "oidc_state"
)

// Options configures the session cookie.
type Options struct {
	Lifetime time.Duration
	Secure   bool
}

// New creates an scs session manager backed by the sessions table of db,
// using the store that matches the database driver.
func New(db *sqlx.DB, opts Options) *scs.SessionManager {
	sm := scs.New()
	switch db.DriverName() {
	case "mysql":
		sm.Store = mysqlstore.New(db.DB)
	default:
		sm.Store = sqlite3store.New(db.DB)
	}
	if opts.Lifetime > 0 {
		sm.Lifetime = opts.Lifetime
	}
	sm.Cookie.Name = "event_site_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = opts.Secure
	return sm
}
