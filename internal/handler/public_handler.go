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

const (
	homeEventLimit       = 6
	homeTestimonialLimit = 3
)

// PublicHandler serves the public marketing pages.
type PublicHandler struct {
	events       *service.EventService
	categories   *service.CategoryService
	testimonials *service.TestimonialService
	contacts     *service.ContactService
	sessions     session.Manager
	view         *view.View
	log          logger.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(events *service.EventService, categories *service.CategoryService, testimonials *service.TestimonialService,
	contacts *service.ContactService, sm session.Manager, v *view.View, log logger.Logger) *PublicHandler {
	return &PublicHandler{
		events:       events,
		categories:   categories,
		testimonials: testimonials,
		contacts:     contacts,
		sessions:     sm,
		view:         v,
		log:          log,
	}
}

// homeHandler shows the featured events and the latest testimonials.
func (h *PublicHandler) homeHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	events, err := h.events.List(r.Context(), data.EventFilter{Limit: homeEventLimit})
	if err != nil {
		return serviceError(err, "Failed to load events")
	}
	testimonials, err := h.testimonials.List(r.Context(), "", homeTestimonialLimit)
	if err != nil {
		return serviceError(err, "Failed to load testimonials")
	}
	return render(h.view, w, r, http.StatusOK, "home.html", map[string]interface{}{
		"Events":       events,
		"Testimonials": testimonials,
	})
}

// portfolioHandler lists events, optionally of a single category given by
// its slug in the "category" query parameter.
func (h *PublicHandler) portfolioHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	selected := r.URL.Query().Get("category")
	if selected == "" {
		selected = "all"
	}

	categories, err := h.categories.List(r.Context())
	if err != nil {
		return serviceError(err, "Failed to load categories")
	}

	filter := data.EventFilter{}
	var current *data.Category
	if selected != "all" {
		current, err = h.categories.GetBySlug(r.Context(), selected)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return &middleware.AppError{Error: err, Message: "Category not found", Code: http.StatusNotFound}
			}
			return serviceError(err, "Failed to load category")
		}
		filter.CategorySlug = current.Slug
	}

	events, err := h.events.List(r.Context(), filter)
	if err != nil {
		return serviceError(err, "Failed to load events")
	}
	return render(h.view, w, r, http.StatusOK, "portfolio.html", map[string]interface{}{
		"Events":     events,
		"Categories": categories,
		"Category":   current,
		"Selected":   selected,
	})
}

func (h *PublicHandler) aboutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return render(h.view, w, r, http.StatusOK, "about.html", nil)
}

func (h *PublicHandler) servicesHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		return serviceError(err, "Failed to load categories")
	}
	return render(h.view, w, r, http.StatusOK, "services.html", map[string]interface{}{"Categories": categories})
}

func (h *PublicHandler) contactFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return render(h.view, w, r, http.StatusOK, "contact.html", map[string]interface{}{"Form": service.ContactInput{}})
}

// contactSubmitHandler stores a contact message. Invalid or throttled
// submissions re-render the form with the entered values.
func (h *PublicHandler) contactSubmitHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Invalid form submission", Code: http.StatusBadRequest}
	}
	in := service.ContactInput{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Message: r.PostFormValue("message"),
	}

	if _, err := h.contacts.Submit(r.Context(), clientIP(r), in); err != nil {
		if !errors.Is(err, service.ErrValidation) {
			return serviceError(err, "Failed to send message")
		}
		return render(h.view, w, r, http.StatusBadRequest, "contact.html", map[string]interface{}{"Form": in, "Error": err.Error()})
	}

	flash(h.sessions, r, "Thank you for your message! We'll get back to you soon.")
	redirectAfter(w, r, "/contact")
	return nil
}
