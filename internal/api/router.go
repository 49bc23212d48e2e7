package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointments/internal/appointment"
	"github.com/hackgods/hospital-appointments/internal/auth"
)

// AppointmentService is the booking and administration surface the handlers call.
type AppointmentService interface {
	CreateAppointment(ctx context.Context, caller *auth.Identity, req appointment.BookingRequest) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, caller *auth.Identity) ([]appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, caller *auth.Identity, id uuid.UUID, patch appointment.AppointmentPatch) (*appointment.Appointment, error)
	DeleteAppointment(ctx context.Context, caller *auth.Identity, id uuid.UUID) error
}

type RouterConfig struct {
	Service     AppointmentService
	Users       UserLookup
	Store       Pinger
	Redis       Pinger
	RateLimiter *RateLimiter
	Logger      zerolog.Logger
	JWTSecret   string
	StoreDriver string
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.Store, cfg.Redis, cfg.StoreDriver, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api/v1/appointments", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret, cfg.Users, cfg.Logger))

		create := createAppointmentHandler(cfg.Service, cfg.Logger)
		if cfg.RateLimiter != nil {
			r.With(RateLimitMiddleware(cfg.RateLimiter)).Post("/", create)
		} else {
			r.Post("/", create)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/", listAppointmentsHandler(cfg.Service, cfg.Logger))
			r.Put("/{id}", updateAppointmentHandler(cfg.Service, cfg.Logger))
			r.Delete("/{id}", deleteAppointmentHandler(cfg.Service, cfg.Logger))
		})
	})

	return r
}
