package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"event-site/internal/data"
	"event-site/internal/middleware"
	"event-site/internal/service"
	"event-site/internal/upload"

	"github.com/go-chi/chi/v5"
)

const multipartMemory = 32 << 20

func (h *AdminHandler) eventsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query().Get("q")
	events, err := h.events.List(r.Context(), data.EventFilter{Search: q})
	if err != nil {
		return serviceError(err, "Failed to load events")
	}
	return render(h.view, w, r, http.StatusOK, "admin/events.html", map[string]interface{}{
		"Events": events,
		"Query":  q,
	})
}

func (h *AdminHandler) renderEventForm(w http.ResponseWriter, r *http.Request, status int, event *data.Event, form service.EventInput, formErr string) *middleware.AppError {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		return serviceError(err, "Failed to load categories")
	}
	page := map[string]interface{}{
		"Categories": categories,
		"Form":       form,
	}
	if event != nil {
		page["Event"] = event
	}
	if formErr != "" {
		page["Error"] = formErr
	}
	return render(h.view, w, r, status, "admin/event_form.html", page)
}

func (h *AdminHandler) newEventHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.renderEventForm(w, r, http.StatusOK, nil, service.EventInput{}, "")
}

// parseEventForm reads the multipart event form. The returned message is
// non-empty when the form itself could not be understood.
func (h *AdminHandler) parseEventForm(w http.ResponseWriter, r *http.Request) (service.EventInput, service.EventFiles, string) {
	var in service.EventInput
	var files service.EventFiles

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return in, files, "Upload is too large"
		}
		return in, files, "Invalid form submission"
	}

	in.Title = r.PostFormValue("title")
	in.Description = r.PostFormValue("description")
	in.CategoryID, _ = strconv.ParseInt(r.PostFormValue("category_id"), 10, 64)
	seq, err := parseOptionalFloat(r.PostFormValue("sequence"))
	if err != nil {
		return in, files, "Sequence must be a number"
	}
	in.Sequence = seq

	files.Image = formFile(r.MultipartForm, "image")
	files.Video = formFile(r.MultipartForm, "video")
	return in, files, ""
}

// formFile returns the uploaded file of field, or nil when none was chosen.
func formFile(form *multipart.Form, field string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	fhs := form.File[field]
	if len(fhs) == 0 || fhs[0].Filename == "" {
		return nil
	}
	return fhs[0]
}

func (h *AdminHandler) createEventHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in, files, formErr := h.parseEventForm(w, r)
	if formErr != "" {
		return h.renderEventForm(w, r, http.StatusBadRequest, nil, in, formErr)
	}

	if _, err := h.events.Create(r.Context(), in, files); err != nil {
		if errors.Is(err, service.ErrValidation) {
			return h.renderEventForm(w, r, http.StatusBadRequest, nil, in, err.Error())
		}
		return serviceError(err, "Failed to save event")
	}
	flash(h.sessions, r, "Event created successfully")
	redirectAfter(w, r, "/admin/events")
	return nil
}

func (h *AdminHandler) editEventHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load event")
	}
	form := service.EventInput{
		Title:       event.Title,
		CategoryID:  event.CategoryID,
		Description: event.Description,
		Sequence:    event.Sequence,
	}
	return h.renderEventForm(w, r, http.StatusOK, event, form, "")
}

func (h *AdminHandler) updateEventHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load event")
	}

	in, files, formErr := h.parseEventForm(w, r)
	if formErr != "" {
		return h.renderEventForm(w, r, http.StatusBadRequest, event, in, formErr)
	}
	if _, err := h.events.Update(r.Context(), id, in, files); err != nil {
		if errors.Is(err, service.ErrValidation) {
			return h.renderEventForm(w, r, http.StatusBadRequest, event, in, err.Error())
		}
		return serviceError(err, "Failed to save event")
	}
	flash(h.sessions, r, "Event updated successfully")
	redirectAfter(w, r, "/admin/events")
	return nil
}

func (h *AdminHandler) deleteEventHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	if err := h.events.Delete(r.Context(), id); err != nil {
		return serviceError(err, "Failed to delete event")
	}
	flash(h.sessions, r, "Event deleted successfully")
	redirectAfter(w, r, "/admin/events")
	return nil
}

// deleteEventFileHandler removes the image or video of an event.
func (h *AdminHandler) deleteEventFileHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	kind := upload.Kind(chi.URLParam(r, "kind"))
	if kind != upload.KindImage && kind != upload.KindVideo {
		return &middleware.AppError{Error: errors.New("unknown file kind"), Message: "Not found", Code: http.StatusNotFound}
	}

	target := "/admin/events/" + strconv.FormatInt(id, 10) + "/edit"
	if err := h.events.DeleteFile(r.Context(), id, kind); err != nil {
		if errors.Is(err, service.ErrValidation) {
			flashError(h.sessions, r, err.Error())
			redirectAfter(w, r, target)
			return nil
		}
		return serviceError(err, "Failed to delete file")
	}
	flash(h.sessions, r, "File deleted successfully")
	redirectAfter(w, r, target)
	return nil
}

const maxSequenceBody = 1 << 20

// updateSequencesHandler applies a JSON object of event id -> sequence in
// one transaction and reports how many events changed.
func (h *AdminHandler) updateSequencesHandler(w http.ResponseWriter, r *http.Request) {
	var body map[string]*float64
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSequenceBody))
	if err := dec.Decode(&body); err != nil {
		middleware.WriteJSONError(w, http.StatusBadRequest, "Request body must be an object of event id to number")
		return
	}

	sequences := make(map[int64]float64, len(body))
	for key, v := range body {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			middleware.WriteJSONError(w, http.StatusBadRequest, "Invalid event id "+strconv.Quote(key))
			return
		}
		if v == nil {
			middleware.WriteJSONError(w, http.StatusBadRequest, "Sequence for event "+strconv.Quote(key)+" must be a number")
			return
		}
		sequences[id] = *v
	}

	updated, err := h.events.UpdateSequences(r.Context(), sequences)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			middleware.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error(err, "Failed to update event sequences")
		middleware.WriteJSONError(w, http.StatusInternalServerError, "Failed to update sequences")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "updated": updated})
}
