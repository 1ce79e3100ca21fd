package handler

import (
	"net/http"
	"strings"

	"event-site/internal/logger"
	"event-site/internal/middleware"
	"event-site/internal/session"
	"event-site/internal/view"
	"event-site/web"

	"github.com/casbin/casbin/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Router bundles what NewRouter needs to build the application routes.
type Router struct {
	Public      *PublicHandler
	Auth        *AuthHandler
	Admin       *AdminHandler
	Seo         *SeoHandler
	Sessions    session.Manager
	Users       middleware.UserLoader
	Enforcer    casbin.IEnforcer
	View        *view.View
	UploadsRoot string
	Log         logger.Logger
}

// NewRouter creates and configures a new chi router.
func NewRouter(rt Router) *chi.Mux {
	rt.View.SetGlobals(Globals(rt.Admin.themes, rt.Sessions))
	app := middleware.Error(rt.Log, rt.View)

	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(rt.Log))
	r.Use(chimw.Recoverer)

	// Assets are served without sessions or authorization.
	r.Handle("/static/*", http.StripPrefix("/static", noListing(http.FileServer(http.FS(web.StaticFS)))))
	r.Handle("/uploads/*", noListing(http.FileServer(http.Dir(rt.UploadsRoot))))

	r.Group(func(r chi.Router) {
		r.Use(rt.Sessions.LoadAndSave)
		r.Use(middleware.LoadUser(rt.Sessions, rt.Users, rt.Log))
		r.Use(middleware.Authorizer(rt.Enforcer, rt.Log))

		r.Method(http.MethodGet, "/", app(rt.Public.homeHandler))
		r.Method(http.MethodGet, "/portfolio", app(rt.Public.portfolioHandler))
		r.Method(http.MethodGet, "/about", app(rt.Public.aboutHandler))
		r.Method(http.MethodGet, "/services", app(rt.Public.servicesHandler))
		r.Method(http.MethodGet, "/contact", app(rt.Public.contactFormHandler))
		r.Method(http.MethodPost, "/contact", app(rt.Public.contactSubmitHandler))
		r.Get("/robots.txt", rt.Seo.robotsHandler)
		r.Get("/sitemap.xml", rt.Seo.sitemapHandler)

		r.Method(http.MethodGet, "/admin/login", app(rt.Auth.loginFormHandler))
		r.Method(http.MethodPost, "/admin/login", app(rt.Auth.loginHandler))
		r.Method(http.MethodPost, "/admin/logout", app(rt.Auth.logoutHandler))
		r.Method(http.MethodGet, "/auth/oidc/login", app(rt.Auth.oidcLoginHandler))
		r.Method(http.MethodGet, "/auth/oidc/callback", app(rt.Auth.oidcCallbackHandler))

		r.Route("/admin", func(r chi.Router) {
			a := rt.Admin
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
			})
			r.Method(http.MethodGet, "/dashboard", app(a.dashboardHandler))

			r.Method(http.MethodGet, "/events", app(a.eventsHandler))
			r.Method(http.MethodGet, "/events/new", app(a.newEventHandler))
			r.Method(http.MethodPost, "/events/new", app(a.createEventHandler))
			r.Method(http.MethodGet, "/events/{id}/edit", app(a.editEventHandler))
			r.Method(http.MethodPost, "/events/{id}/edit", app(a.updateEventHandler))
			r.Method(http.MethodPost, "/events/{id}/delete", app(a.deleteEventHandler))
			r.Method(http.MethodPost, "/events/{id}/files/{kind}/delete", app(a.deleteEventFileHandler))
			r.Post("/api/events/sequence", a.updateSequencesHandler)

			r.Method(http.MethodGet, "/categories", app(a.categoriesHandler))
			r.Method(http.MethodGet, "/categories/new", app(a.newCategoryHandler))
			r.Method(http.MethodPost, "/categories/new", app(a.createCategoryHandler))
			r.Method(http.MethodGet, "/categories/{id}/edit", app(a.editCategoryHandler))
			r.Method(http.MethodPost, "/categories/{id}/edit", app(a.updateCategoryHandler))
			r.Method(http.MethodPost, "/categories/{id}/delete", app(a.deleteCategoryHandler))

			r.Method(http.MethodGet, "/testimonials", app(a.testimonialsHandler))
			r.Method(http.MethodGet, "/testimonials/new", app(a.newTestimonialHandler))
			r.Method(http.MethodPost, "/testimonials/new", app(a.createTestimonialHandler))
			r.Method(http.MethodGet, "/testimonials/{id}/edit", app(a.editTestimonialHandler))
			r.Method(http.MethodPost, "/testimonials/{id}/edit", app(a.updateTestimonialHandler))
			r.Method(http.MethodPost, "/testimonials/{id}/delete", app(a.deleteTestimonialHandler))

			r.Method(http.MethodGet, "/contacts", app(a.contactsHandler))
			r.Method(http.MethodGet, "/contacts/{id}", app(a.contactHandler))

			r.Method(http.MethodGet, "/themes", app(a.themesHandler))
			r.Method(http.MethodGet, "/themes/new", app(a.newThemeHandler))
			r.Method(http.MethodPost, "/themes/new", app(a.createThemeHandler))
			r.Method(http.MethodGet, "/themes/{id}/edit", app(a.editThemeHandler))
			r.Method(http.MethodPost, "/themes/{id}/edit", app(a.updateThemeHandler))
			r.Method(http.MethodPost, "/themes/{id}/activate", app(a.activateThemeHandler()))
			r.Method(http.MethodPost, "/themes/{id}/deactivate", app(a.deactivateThemeHandler()))
			r.Method(http.MethodPost, "/themes/{id}/delete", app(a.deleteThemeHandler()))
		})
	})

	notFound := app(func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		return &middleware.AppError{Message: "Not found", Code: http.StatusNotFound}
	})
	r.NotFound(rt.Sessions.LoadAndSave(notFound).ServeHTTP)

	return r
}

// noListing hides directory indexes of file servers.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
