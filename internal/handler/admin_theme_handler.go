package handler

import (
	"errors"
	"net/http"
	"strings"

	"event-site/internal/data"
	"event-site/internal/middleware"
	"event-site/internal/service"
)

func (h *AdminHandler) themesHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	themes, err := h.themes.List(r.Context())
	if err != nil {
		return serviceError(err, "Failed to load themes")
	}
	return render(h.view, w, r, http.StatusOK, "admin/themes.html", map[string]interface{}{"Themes": themes})
}

func themeForm(r *http.Request) service.ThemeInput {
	return service.ThemeInput{
		Name: strings.TrimSpace(r.PostFormValue("name")),
		Colors: service.Palette{
			Primary:   strings.ToLower(r.PostFormValue("primary_color")),
			Secondary: strings.ToLower(r.PostFormValue("secondary_color")),
			Accent:    strings.ToLower(r.PostFormValue("accent_color")),
		},
		Active: r.PostFormValue("is_active") == "true",
	}
}

// themePage uses the ThemeRecord key because Theme holds the palette of
// the active theme for the layout.
func themePage(t *data.Theme, form service.ThemeInput) map[string]interface{} {
	page := map[string]interface{}{"Form": form}
	if t != nil {
		page["ThemeRecord"] = t
	}
	return page
}

func (h *AdminHandler) newThemeHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	form := service.ThemeInput{Colors: h.themes.Defaults()}
	return render(h.view, w, r, http.StatusOK, "admin/theme_form.html", themePage(nil, form))
}

func (h *AdminHandler) createThemeHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in := themeForm(r)
	if _, err := h.themes.Create(r.Context(), in); err != nil {
		return h.formError(w, r, err, "admin/theme_form.html", themePage(nil, in), "Failed to save theme")
	}
	flash(h.sessions, r, "Theme created successfully")
	redirectAfter(w, r, "/admin/themes")
	return nil
}

func (h *AdminHandler) editThemeHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	t, err := h.themes.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load theme")
	}
	form := service.ThemeInput{Name: t.Name, Colors: h.themes.Defaults(), Active: t.IsActive}
	if t.Colors != nil {
		form.Colors = service.Palette{Primary: t.Colors.Primary, Secondary: t.Colors.Secondary, Accent: t.Colors.Accent}
	}
	return render(h.view, w, r, http.StatusOK, "admin/theme_form.html", themePage(t, form))
}

func (h *AdminHandler) updateThemeHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	t, err := h.themes.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load theme")
	}
	in := themeForm(r)
	if _, err := h.themes.Update(r.Context(), id, in); err != nil {
		return h.formError(w, r, err, "admin/theme_form.html", themePage(t, in), "Failed to save theme")
	}
	flash(h.sessions, r, "Theme updated successfully")
	redirectAfter(w, r, "/admin/themes")
	return nil
}

// themeAction runs one of the activation or deletion operations and
// reports the outcome through the flash message.
func (h *AdminHandler) themeAction(op func(r *http.Request, id int64) error, done, failed string) func(http.ResponseWriter, *http.Request) *middleware.AppError {
	return func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		id, appErr := urlID(r)
		if appErr != nil {
			return appErr
		}
		if err := op(r, id); err != nil {
			switch {
			case errors.Is(err, service.ErrValidation):
				flashError(h.sessions, r, err.Error())
			case errors.Is(err, service.ErrInconsistentTheme):
				flashError(h.sessions, r, "Themes were left in an inconsistent state, please try again")
			default:
				return serviceError(err, failed)
			}
			redirectAfter(w, r, "/admin/themes")
			return nil
		}
		flash(h.sessions, r, done)
		redirectAfter(w, r, "/admin/themes")
		return nil
	}
}

func (h *AdminHandler) activateThemeHandler() middleware.AppHandler {
	return h.themeAction(func(r *http.Request, id int64) error {
		return h.themes.Activate(r.Context(), id)
	}, "Theme activated", "Failed to activate theme")
}

func (h *AdminHandler) deactivateThemeHandler() middleware.AppHandler {
	return h.themeAction(func(r *http.Request, id int64) error {
		return h.themes.Deactivate(r.Context(), id)
	}, "Theme deactivated", "Failed to deactivate theme")
}

func (h *AdminHandler) deleteThemeHandler() middleware.AppHandler {
	return h.themeAction(func(r *http.Request, id int64) error {
		return h.themes.Delete(r.Context(), id)
	}, "Theme deleted", "Failed to delete theme")
}
