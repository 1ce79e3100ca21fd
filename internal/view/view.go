// Package view renders the embedded HTML templates.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"event-site/internal/upload"
)

// GlobalsFunc returns values every template receives, such as the theme
// palette and the signed-in user.
type GlobalsFunc func(r *http.Request) map[string]interface{}

// View represents a collection of parsed HTML templates.
type View struct {
	templates map[string]*template.Template
	globals   GlobalsFunc
}

// Funcs are the helpers available in every template.
var Funcs = template.FuncMap{
	"upload": func(rel *string) string {
		if rel == nil {
			return ""
		}
		return "/" + strings.TrimPrefix(*rel, "/")
	},
	"thumb": func(rel *string) string {
		if rel == nil {
			return ""
		}
		return "/" + upload.ThumbnailPath(*rel)
	},
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"seq": func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	},
	// safe marks HTML that was sanitized before it was stored.
	"safe": func(s string) template.HTML {
		return template.HTML(s)
	},
}

// New parses every page under templates/pages (including sub-directories
// such as admin/) together with the layouts. A page is addressed by its
// path below templates/pages, e.g. "home.html" or "admin/events.html".
func New(templateFS fs.FS) (*View, error) {
	v := &View{
		templates: make(map[string]*template.Template),
	}

	layouts, err := fs.Glob(templateFS, "templates/layouts/*.html")
	if err != nil {
		return nil, err
	}

	err = fs.WalkDir(templateFS, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		name := strings.TrimPrefix(p, "templates/pages/")
		files := append(append([]string{}, layouts...), p)
		ts, err := template.New(path.Base(p)).Funcs(Funcs).ParseFS(templateFS, files...)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		v.templates[name] = ts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// SetGlobals installs the per-request template values.
func (v *View) SetGlobals(fn GlobalsFunc) {
	v.globals = fn
}

// Has reports whether a template with name exists.
func (v *View) Has(name string) bool {
	_, ok := v.templates[name]
	return ok
}

// Render executes a specific template by name with status 200.
func (v *View) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) error {
	return v.RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus executes a template and writes it with the given status.
// Output is buffered so a failing template writes nothing at all.
func (v *View) RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) error {
	ts, ok := v.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	if v.globals != nil {
		for k, val := range v.globals(r) {
			if _, set := data[k]; !set {
				data[k] = val
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
