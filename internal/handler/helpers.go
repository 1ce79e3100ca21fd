package handler

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"event-site/internal/middleware"
	"event-site/internal/service"
	"event-site/internal/session"
	"event-site/internal/view"

	"github.com/go-chi/chi/v5"
)

// serviceError maps a service error onto an HTTP status. Validation
// messages are shown to the user as they are.
func serviceError(err error, message string) *middleware.AppError {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return &middleware.AppError{Error: err, Message: "Not found", Code: http.StatusNotFound}
	case errors.Is(err, service.ErrValidation):
		return &middleware.AppError{Error: err, Message: err.Error(), Code: http.StatusBadRequest}
	default:
		return &middleware.AppError{Error: err, Message: message, Code: http.StatusInternalServerError}
	}
}

// render writes a page, turning template failures into a 500.
func render(v *view.View, w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) *middleware.AppError {
	if err := v.RenderStatus(w, r, status, name, data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render page", Code: http.StatusInternalServerError}
	}
	return nil
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int64, *middleware.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &middleware.AppError{Error: err, Message: "Not found", Code: http.StatusNotFound}
	}
	return id, nil
}

func flash(sm session.Manager, r *http.Request, msg string) {
	sm.Put(r.Context(), session.FlashKey, msg)
}

func flashError(sm session.Manager, r *http.Request, msg string) {
	sm.Put(r.Context(), session.FlashErrorKey, msg)
}

// redirectAfter redirects with 303 so the browser follows with a GET.
func redirectAfter(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP
// middleware has already replaced with the forwarded address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
