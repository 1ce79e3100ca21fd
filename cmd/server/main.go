package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-site/internal/auth"
	"event-site/internal/cache"
	"event-site/internal/config"
	"event-site/internal/data"
	"event-site/internal/handler"
	"event-site/internal/logger"
	"event-site/internal/service"
	"event-site/internal/session"
	"event-site/internal/upload"
	"event-site/internal/view"
	"event-site/web"
)

const cachePruneInterval = 10 * time.Minute

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Pre-flight Checks ---
	if cfg.Session.SecretKey == "" || cfg.Session.SecretKey == "CHANGE_ME_IN_PRODUCTION_SECRET!!" {
		log.Fatal(errors.New("session secret key not set"), "Please set a secure SITE_SESSION_SECRETKEY environment variable.")
	}

	// --- Database Initialization and Migration ---
	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(db); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	// --- Session Management Setup ---
	sessionManager := session.New(db, session.Options{
		Lifetime: time.Duration(cfg.Session.Lifetime) * time.Hour,
		Secure:   cfg.Server.TLS.Enabled,
	})

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authentication and authorization...")
	var authenticator *auth.Authenticator
	if cfg.OIDC.Enabled() {
		authenticator, err = auth.NewAuthenticator(context.Background(), cfg.OIDC)
		if err != nil {
			log.Fatal(err, "Failed to initialize authenticator")
		}
	}
	enforcer, err := auth.NewEnforcer(db.DriverName(), cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, log)
	log.Info("Auth components initialized and policies seeded.")

	// --- View Template Initialization ---
	log.Info("Initializing view templates...")
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}
	log.Info("View templates initialized.")

	// --- Cache Initialization ---
	log.Info("Initializing SQLite cache...")
	kv, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer kv.Close()
	log.Info("Cache initialized.")

	// --- Dependency Injection and Handler Initialization ---
	userRepository := data.NewUserRepository(db)
	categoryRepository := data.NewCategoryRepository(db)
	eventRepository := data.NewEventRepository(db)
	themeRepository := data.NewThemeRepository(db)

	store := upload.NewStore(cfg.Uploads, log)
	accounts := service.NewAccountService(userRepository, log)
	categories := service.NewCategoryService(categoryRepository, log)
	events := service.NewEventService(eventRepository, categoryRepository, upload.NewValidator(cfg.Uploads), store, log)
	testimonials := service.NewTestimonialService(data.NewTestimonialRepository(db))
	contacts := service.NewContactService(data.NewContactRepository(db), kv,
		time.Duration(cfg.Contact.ThrottleSeconds)*time.Second, log)
	themes := service.NewThemeManager(themeRepository, cfg.Theme, log)

	ctx := context.Background()
	if err := themes.Bootstrap(ctx); err != nil {
		log.Fatal(err, "Failed to create default themes")
	}
	if err := accounts.EnsureAdmin(ctx, cfg.Admin); err != nil {
		log.Fatal(err, "Failed to create administrator account")
	}

	adminHandler := handler.NewAdminHandler(handler.AdminServices{
		Events:       events,
		Categories:   categories,
		Testimonials: testimonials,
		Contacts:     contacts,
		Themes:       themes,
	}, sessionManager, viewService, log, cfg.Uploads.MaxImageBytes+cfg.Uploads.MaxVideoBytes+1<<20)

	// --- Router Setup ---
	router := handler.NewRouter(handler.Router{
		Public:      handler.NewPublicHandler(events, categories, testimonials, contacts, sessionManager, viewService, log),
		Auth:        handler.NewAuthHandler(accounts, authenticator, sessionManager, viewService, log),
		Admin:       adminHandler,
		Seo:         handler.NewSeoHandler(categories, cfg.Server.BaseURL, log),
		Sessions:    sessionManager,
		Users:       accounts,
		Enforcer:    enforcer,
		View:        viewService,
		UploadsRoot: store.Root(),
		Log:         log,
	})

	// --- Background Jobs ---
	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go pruneCache(pruneCtx, kv, log)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}

// pruneCache removes expired cache entries until ctx is cancelled.
func pruneCache(ctx context.Context, kv *cache.Cache, log logger.Logger) {
	ticker := time.NewTicker(cachePruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := kv.Prune()
			if err != nil {
				log.Error(err, "Failed to prune cache")
				continue
			}
			if n > 0 {
				log.Debug(fmt.Sprintf("Pruned %d expired cache entries", n))
			}
		}
	}
}
