package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"event-site/internal/data"
	"event-site/internal/middleware"
	"event-site/internal/service"
)

func (h *AdminHandler) categoriesHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query().Get("q")
	categories, err := h.categories.Search(r.Context(), q)
	if err != nil {
		return serviceError(err, "Failed to load categories")
	}
	return render(h.view, w, r, http.StatusOK, "admin/categories.html", map[string]interface{}{
		"Categories": categories,
		"Query":      q,
	})
}

func categoryForm(r *http.Request) (service.CategoryInput, string) {
	in := service.CategoryInput{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: r.PostFormValue("description"),
	}
	if s := r.PostFormValue("sequence"); s != "" {
		seq, err := strconv.Atoi(s)
		if err != nil {
			return in, "Sequence must be a whole number"
		}
		in.Sequence = seq
	}
	return in, ""
}

func (h *AdminHandler) categoryPage(category *data.Category, form service.CategoryInput) map[string]interface{} {
	page := map[string]interface{}{"Form": form}
	if category != nil {
		page["Category"] = category
	}
	return page
}

func (h *AdminHandler) newCategoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return render(h.view, w, r, http.StatusOK, "admin/category_form.html", h.categoryPage(nil, service.CategoryInput{}))
}

func (h *AdminHandler) createCategoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in, formErr := categoryForm(r)
	page := h.categoryPage(nil, in)
	if formErr != "" {
		page["Error"] = formErr
		return render(h.view, w, r, http.StatusBadRequest, "admin/category_form.html", page)
	}
	if _, err := h.categories.Create(r.Context(), in); err != nil {
		return h.formError(w, r, err, "admin/category_form.html", page, "Failed to save category")
	}
	flash(h.sessions, r, "Category created successfully")
	redirectAfter(w, r, "/admin/categories")
	return nil
}

func (h *AdminHandler) editCategoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load category")
	}
	form := service.CategoryInput{Name: category.Name, Description: category.Description, Sequence: category.Sequence}
	return render(h.view, w, r, http.StatusOK, "admin/category_form.html", h.categoryPage(category, form))
}

func (h *AdminHandler) updateCategoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		return serviceError(err, "Failed to load category")
	}

	in, formErr := categoryForm(r)
	page := h.categoryPage(category, in)
	if formErr != "" {
		page["Error"] = formErr
		return render(h.view, w, r, http.StatusBadRequest, "admin/category_form.html", page)
	}
	if _, err := h.categories.Update(r.Context(), id, in); err != nil {
		return h.formError(w, r, err, "admin/category_form.html", page, "Failed to save category")
	}
	flash(h.sessions, r, "Category updated successfully")
	redirectAfter(w, r, "/admin/categories")
	return nil
}

// deleteCategoryHandler refuses to remove a category that still has
// events and reports why through the flash message.
func (h *AdminHandler) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := urlID(r)
	if appErr != nil {
		return appErr
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrValidation) {
			flashError(h.sessions, r, err.Error())
			redirectAfter(w, r, "/admin/categories")
			return nil
		}
		return serviceError(err, "Failed to delete category")
	}
	flash(h.sessions, r, "Category deleted successfully")
	redirectAfter(w, r, "/admin/categories")
	return nil
}
