package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/appointments"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/auth"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/cache"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/config"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/db"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/middleware"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/notifications"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/schedules"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/sessions"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/users"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ownershipCounter lets the user directory check, at deletion time, whether
// other collections still reference a user.
type ownershipCounter struct {
	schedules    *schedules.MongoRepository
	appointments *appointments.MongoRepository
}

func (c ownershipCounter) CountSchedulesByProfessional(ctx context.Context, professionalID string) (int64, error) {
	return c.schedules.CountByProfessional(ctx, professionalID)
}

func (c ownershipCounter) CountAppointmentsByClient(ctx context.Context, clientID string) (int64, error) {
	return c.appointments.CountByClient(ctx, clientID)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:    []byte(cfg.JWTSecret),
			AccessTTL: time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			Issuer:    "agendamentos-plataforma",
		}
	} else {
		logger.Warn("jwt secret missing, protected routes disabled")
	}

	var mailer appointments.BookingMailer
	if brevo := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.BrevoSandbox); brevo != nil {
		mailer = brevo
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	} else {
		logger.Info("brevo mailer disabled")
	}

	val := validation.New()
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	usersRepo := users.NewRepository(cols.Users)
	schedulesRepo := schedules.NewRepository(cols.Schedules)
	appointmentsRepo := appointments.NewRepository(cols.Appointments)

	counter := ownershipCounter{schedules: schedulesRepo, appointments: appointmentsRepo}

	usersService := users.NewService(usersRepo, counter, cfg.Timezone)
	usersHandler := users.NewHandler(usersService, val, logger)

	schedulesService := schedules.NewService(schedulesRepo, usersRepo, cfg.Timezone)
	schedulesHandler := schedules.NewHandler(schedulesService, val, logger, cacheStore, cacheTTL)

	appointmentsService := appointments.NewService(appointmentsRepo, usersRepo, schedulesRepo, cfg.Timezone)
	appointmentsHandler := appointments.NewHandler(appointmentsService, val, logger, cacheStore, mailer)

	sessionsService := sessions.NewService(usersService, jwtManager)
	sessionsHandler := sessions.NewHandler(sessionsService, val, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.FrontendOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	window := time.Duration(cfg.RateLimitWindowSec) * time.Second
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimitLogin, window)
	bookingLimiter := middleware.NewRateLimiter(cfg.RateLimitBookings, window)

	r.Route("/api", func(api chi.Router) {
		api.With(loginLimiter.Middleware).Post("/auth/login", sessionsHandler.Login)

		api.Post("/users", usersHandler.Register)
		api.Get("/users", usersHandler.List)
		api.Get("/users/{id}", usersHandler.Get)

		api.Get("/schedules", schedulesHandler.List)
		api.Get("/schedules/{id}", schedulesHandler.Get)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireSession(jwtManager))

			protected.Patch("/users/{id}", usersHandler.Update)
			protected.Delete("/users/{id}", usersHandler.Delete)

			protected.Post("/schedules", schedulesHandler.Create)
			protected.Patch("/schedules/{id}", schedulesHandler.Update)
			protected.Delete("/schedules/{id}", schedulesHandler.Delete)

			protected.With(bookingLimiter.Middleware).Post("/appointments", appointmentsHandler.Create)
			protected.Get("/appointments", appointmentsHandler.List)
			protected.Get("/appointments/{id}", appointmentsHandler.Get)
			protected.Patch("/appointments/{id}", appointmentsHandler.Update)
			protected.Delete("/appointments/{id}", appointmentsHandler.Delete)
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
