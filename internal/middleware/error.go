package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"event-site/internal/logger"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Renderer renders a named page template with a status code.
type Renderer interface {
	RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) error
}

// Error is a middleware that converts handler errors into user-friendly error pages.
func Error(log logger.Logger, view Renderer) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContext(r.Context(), log)
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					renderError(w, r, view, log, http.StatusInternalServerError, "Internal Server Error")
				}
			}()

			if err := next(w, r); err != nil {
				if err.Code >= http.StatusInternalServerError {
					log.Error(err.Error, err.Message)
				} else {
					log.Debug(fmt.Sprintf("%s: %v", err.Message, err.Error))
				}
				renderError(w, r, view, log, err.Code, err.Message)
			}
		})
	}
}

func renderError(w http.ResponseWriter, r *http.Request, view Renderer, log logger.Logger, code int, message string) {
	data := map[string]interface{}{
		"StatusCode": code,
		"StatusText": message,
	}
	if err := view.RenderStatus(w, r, code, "error.html", data); err != nil {
		log.Error(err, "Failed to render error page")
		http.Error(w, message, code)
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes {"success": false, "error": message}.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]interface{}{"success": false, "error": message})
}
