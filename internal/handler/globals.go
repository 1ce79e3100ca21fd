package handler

import (
	"net/http"
	"time"

	"event-site/internal/middleware"
	"event-site/internal/service"
	"event-site/internal/session"
	"event-site/internal/view"
)

// Globals returns the values every page layout needs: the palette of the
// active theme, the current user and any pending flash messages.
func Globals(themes *service.ThemeManager, sm session.Manager) view.GlobalsFunc {
	return func(r *http.Request) map[string]interface{} {
		ctx := r.Context()
		return map[string]interface{}{
			"Theme":      themes.ActiveColors(ctx),
			"User":       middleware.GetUserInfo(ctx),
			"Flash":      sm.PopString(ctx, session.FlashKey),
			"FlashError": sm.PopString(ctx, session.FlashErrorKey),
			"Year":       time.Now().Year(),
		}
	}
}
