package handler

import (
	"net/http"

	"event-site/internal/data"
	"event-site/internal/middleware"
	"event-site/internal/service"
)

func (h *AdminHandler) testimonialsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query().Get("q")
	testimonials, err := h.testimonials.List(r.Context(), q, 0)
	if err != nil {
		return serviceError(err, "Failed to load testimonials")
	}
	return render(h.view, w, r, http.StatusOK, "admin/testimonials.html", map[string]interface{}{
		"Testimonials": testimonials,
		"Query":        q,
	})
}

func testimonialForm(r *http.Request) service.TestimonialInput {
	return service.TestimonialInput{
		ClientName: r.PostFormValue("client_name"),
		Content:    r.PostFormValue("content"),
		EventType:  r.PostFormValue("event_type"),
	}
}

func testimonialPage(t *data.Testimonial, form service.TestimonialInput) map[string]interface{} {
	page := map[string]interface{}{"Form": form}
	if t != nil {
		page["Testimonial"] = t
	}
	return page
}

func (h *AdminHandler) newTestimonialHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return render(h.view, w, r, http.StatusOK, "admin/testimonial_form.html", testimonialPage(nil, service.TestimonialInput{}))
}

func (h *AdminHandler) createTestimonialHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in := testimonialForm(r)
	if _, err := h.testimonials.Create(r.Context(), in); err != nil {
		return h.formError(w, r, err, "admin/testimonial_form.html", testimonialPage(nil, in), "Failed to save testimonial")
	}
	flash(h.sessions, r, "Testimonial created successfully")
	redirectAfter(w, r, "/admin/testimonials")
	return nil
}

func (h *AdminHandler) editTestimonialHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	t, err := h.testimonials.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load testimonial")
	}
	form := service.TestimonialInput{ClientName: t.ClientName, Content: t.Content, EventType: t.EventType}
	return render(h.view, w, r, http.StatusOK, "admin/testimonial_form.html", testimonialPage(t, form))
}

func (h *AdminHandler) updateTestimonialHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	t, err := h.testimonials.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load testimonial")
	}
	in := testimonialForm(r)
	if _, err := h.testimonials.Update(r.Context(), id, in); err != nil {
		return h.formError(w, r, err, "admin/testimonial_form.html", testimonialPage(t, in), "Failed to save testimonial")
	}
	flash(h.sessions, r, "Testimonial updated successfully")
	redirectAfter(w, r, "/admin/testimonials")
	return nil
}

func (h *AdminHandler) deleteTestimonialHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	if err := h.testimonials.Delete(r.Context(), id); err != nil {
		return serviceError(err, "Failed to delete testimonial")
	}
	flash(h.sessions, r, "Testimonial deleted successfully")
	redirectAfter(w, r, "/admin/testimonials")
	return nil
}

// Contact messages are read-only in the admin area.

func (h *AdminHandler) contactsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query().Get("q")
	contacts, err := h.contacts.List(r.Context(), q)
	if err != nil {
		return serviceError(err, "Failed to load messages")
	}
	return render(h.view, w, r, http.StatusOK, "admin/contacts.html", map[string]interface{}{
		"Contacts": contacts,
		"Query":    q,
	})
}

func (h *AdminHandler) contactHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	c, err := h.contacts.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load message")
	}
	return render(h.view, w, r, http.StatusOK, "admin/contact.html", map[string]interface{}{"Contact": c})
}
