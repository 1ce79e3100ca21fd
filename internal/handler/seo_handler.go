package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"event-site/internal/logger"
	"event-site/internal/service"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	categories *service.CategoryService
	baseURL    string
	log        logger.Logger
}

// NewSeoHandler creates a new SeoHandler. baseURL is the public origin of
// the site, e.g. "https://example.com".
func NewSeoHandler(categories *service.CategoryService, baseURL string, log logger.Logger) *SeoHandler {
	return &SeoHandler{categories: categories, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// robotsHandler keeps crawlers out of the admin area.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "Disallow: /admin")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", h.baseURL)
}

var sitemapPages = []string{"/", "/portfolio", "/about", "/services", "/contact"}

type sitemapURL struct {
	XMLName  xml.Name `xml:"url"`
	Loc      string   `xml:"loc"`
	Priority string   `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler lists the public pages plus one portfolio page per category.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		h.log.Error(err, "Failed to load categories for sitemap")
		http.Error(w, "Failed to retrieve categories for sitemap", http.StatusInternalServerError)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(sitemapPages)+len(categories)),
	}
	for i, p := range sitemapPages {
		u := sitemapURL{Loc: h.baseURL + p}
		if i == 0 {
			u.Priority = "1.0"
		}
		sitemap.URLs = append(sitemap.URLs, u)
	}
	for _, c := range categories {
		sitemap.URLs = append(sitemap.URLs, sitemapURL{
			Loc:      h.baseURL + "/portfolio?category=" + url.QueryEscape(c.Slug),
			Priority: "0.6",
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		h.log.Error(err, "Failed to encode sitemap")
	}
}
