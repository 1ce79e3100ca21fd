package handler

import (
	"errors"
	"net/http"

	"event-site/internal/data"
	"event-site/internal/logger"
	"event-site/internal/middleware"
	"event-site/internal/service"
	"event-site/internal/session"
	"event-site/internal/view"
)

// AdminHandler serves the admin area. Each entity has its own file of
// hand-written CRUD handlers.
type AdminHandler struct {
	events         *service.EventService
	categories     *service.CategoryService
	testimonials   *service.TestimonialService
	contacts       *service.ContactService
	themes         *service.ThemeManager
	sessions       session.Manager
	view           *view.View
	log            logger.Logger
	maxUploadBytes int64
}

// AdminServices groups the services the admin area works on.
type AdminServices struct {
	Events       *service.EventService
	Categories   *service.CategoryService
	Testimonials *service.TestimonialService
	Contacts     *service.ContactService
	Themes       *service.ThemeManager
}

// NewAdminHandler creates a new AdminHandler. maxUploadBytes caps the size
// of a whole multipart request.
func NewAdminHandler(svc AdminServices, sm session.Manager, v *view.View, log logger.Logger, maxUploadBytes int64) *AdminHandler {
	return &AdminHandler{
		events:         svc.Events,
		categories:     svc.Categories,
		testimonials:   svc.Testimonials,
		contacts:       svc.Contacts,
		themes:         svc.Themes,
		sessions:       sm,
		view:           v,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *AdminHandler) dashboardHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	ctx := r.Context()
	events, err := h.events.List(ctx, data.EventFilter{})
	if err != nil {
		return serviceError(err, "Failed to load events")
	}
	categories, err := h.categories.List(ctx)
	if err != nil {
		return serviceError(err, "Failed to load categories")
	}
	testimonials, err := h.testimonials.List(ctx, "", 0)
	if err != nil {
		return serviceError(err, "Failed to load testimonials")
	}
	contacts, err := h.contacts.List(ctx, "")
	if err != nil {
		return serviceError(err, "Failed to load contacts")
	}
	active, err := h.themes.ActiveTheme(ctx)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		return serviceError(err, "Failed to load theme")
	}

	return render(h.view, w, r, http.StatusOK, "admin/dashboard.html", map[string]interface{}{
		"EventCount":       len(events),
		"CategoryCount":    len(categories),
		"TestimonialCount": len(testimonials),
		"ContactCount":     len(contacts),
		"ActiveTheme":      active,
	})
}

// formError re-renders a form with the validation message, or converts any
// other error into an AppError.
func (h *AdminHandler) formError(w http.ResponseWriter, r *http.Request, err error, page string, data map[string]interface{}, message string) *middleware.AppError {
	if !errors.Is(err, service.ErrValidation) {
		return serviceError(err, message)
	}
	data["Error"] = err.Error()
	return render(h.view, w, r, http.StatusBadRequest, page, data)
}
