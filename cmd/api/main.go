// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/email"
	"github.com/taskhive/taskhive/internal/handler"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}))
	slog.SetDefault(log)

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := setupDatabase(cfg)
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}

	// Initialize repositories
	repos := repository.NewRegistry(db)

	// Initialize auth services
	passwordHasher := auth.NewPasswordHasher()
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod)

	// Initialize email service
	var mailer email.Mailer
	if cfg.Sendgrid.APIKey != "" {
		mailer, err = email.NewService(cfg.Sendgrid.APIKey, cfg.Sendgrid.From)
		if err != nil {
			return fmt.Errorf("initializing email service: %w", err)
		}
	} else {
		log.Warn("SENDGRID_API_KEY not set, outbound email disabled")
	}

	// Initialize services
	guard := service.NewOrgGuard(repos.Organizations)
	registrationService := service.NewRegistrationService(repos, passwordHasher, tokenManager, mailer, cfg)
	authService := service.NewAuthService(repos, guard, passwordHasher, tokenManager)
	organizationService := service.NewOrganizationService(repos, guard)
	userService := service.NewUserService(repos, guard, passwordHasher)
	topicService := service.NewTopicService(repos, guard)
	taskService := service.NewTaskService(repos, guard)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(registrationService, authService)
	organizationHandler := handler.NewOrganizationHandler(organizationService)
	userHandler := handler.NewUserHandler(userService)
	topicHandler := handler.NewTopicHandler(topicService)
	taskHandler := handler.NewTaskHandler(taskService)

	// Create router
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))

			r.Post("/register", authHandler.RegisterHandler)
			r.Post("/login", authHandler.LoginHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokenManager))

			r.Route("/organizations/{orgID}", func(r chi.Router) {
				r.Get("/", organizationHandler.GetHandler)
				r.Patch("/", organizationHandler.UpdateHandler)
				r.Get("/stats", organizationHandler.StatsHandler)
				r.Post("/activate", organizationHandler.ActivateHandler)
				r.Post("/deactivate", organizationHandler.DeactivateHandler)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", userHandler.GetProfileHandler)
				r.Patch("/", userHandler.UpdateProfileHandler)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.ListHandler)
				r.Post("/", userHandler.CreateHandler)
				r.Get("/{userID}", userHandler.GetHandler)
				r.Patch("/{userID}", userHandler.UpdateHandler)
				r.Delete("/{userID}", userHandler.DeleteHandler)
			})

			r.Route("/topics", func(r chi.Router) {
				r.Get("/", topicHandler.ListActiveHandler)
				r.Get("/all", topicHandler.ListHandler)
				r.Post("/", topicHandler.CreateHandler)
				r.Get("/{topicID}", topicHandler.GetHandler)
				r.Patch("/{topicID}", topicHandler.UpdateHandler)
				r.Delete("/{topicID}", topicHandler.DeleteHandler)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.ListTeamHandler)
				r.Get("/all", taskHandler.ListAllHandler)
				r.Get("/mine", taskHandler.ListMyActiveHandler)
				r.Get("/mine/completed", taskHandler.ListMyCompletedHandler)
				r.Post("/", taskHandler.CreateHandler)
				r.Get("/{taskID}", taskHandler.GetHandler)
				r.Patch("/{taskID}", taskHandler.UpdateHandler)
				r.Patch("/{taskID}/status", taskHandler.UpdateStatusHandler)
				r.Delete("/{taskID}", taskHandler.DeleteHandler)
			})
		})
	})

	// Create server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server error channel
	serverErrors := make(chan error, 1)

	// Start server
	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Shutdown channel
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)

	// Wait for shutdown or error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info("shutdown started", "signal", sig)

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func setupDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func loggingMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info("request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"duration", time.Since(start),
					"status", ww.Status(),
					"size", ww.BytesWritten(),
					"requestID", chimw.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func recoveryMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					err := errors.New("panic recovered")
					log.Error("panic recovered",
						"error", err,
						"panic", rvr,
						"stack", string(debug.Stack()),
						"requestID", chimw.GetReqID(r.Context()),
					)

					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error":"error encountered"}`))
					return
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
