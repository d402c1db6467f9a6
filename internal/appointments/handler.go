package appointments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/cache"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/httpx"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/middleware"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/transport"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/validation"
)

type BookingMailer interface {
	SendBookingConfirmation(ctx context.Context, booking View, clientEmail string) (string, error)
}

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
	cache   cache.Cache
	mailer  BookingMailer
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, c cache.Cache, mailer BookingMailer) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
		cache:   c,
		mailer:  mailer,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	view, err := h.service.Create(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrClientNotFound):
			log.Warn("appointments create: client not found", slog.String("client_id", req.ClientID))
			transport.WriteError(w, http.StatusNotFound, "client not found", nil)
		case errors.Is(err, ErrScheduleNotFound):
			log.Warn("appointments create: schedule not found", slog.String("schedule_id", req.ScheduleID))
			transport.WriteError(w, http.StatusNotFound, "schedule not found", nil)
		case errors.Is(err, ErrScheduleTaken):
			log.Warn("appointments create: schedule already booked", slog.String("schedule_id", req.ScheduleID))
			transport.WriteError(w, http.StatusConflict, "schedule not available", nil)
		default:
			log.Error("appointments create: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	if h.cache != nil {
		_ = h.cache.DeletePrefix(r.Context(), "schedules:")
	}

	if h.mailer != nil {
		go h.sendBookingConfirmation(log, view, req.ClientID)
	}

	log.Info("appointments create: booked",
		slog.String("appointment_id", view.ID),
		slog.String("client_id", view.Client.ID),
		slog.String("schedule_id", view.Schedule.ID),
		slog.String("status", view.Status),
	)
	transport.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) sendBookingConfirmation(log *slog.Logger, view View, clientID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	client, err := h.service.userSrc.FindByID(ctx, clientID)
	if err != nil {
		log.Warn("appointments email: client lookup failed",
			slog.String("appointment_id", view.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	messageID, err := h.mailer.SendBookingConfirmation(ctx, view, client.Email)
	if err != nil {
		log.Warn("appointments email: send failed",
			slog.String("appointment_id", view.ID),
			slog.String("email", client.Email),
			slog.String("error", err.Error()),
		)
		return
	}

	log.Info("appointments email: sent",
		slog.String("appointment_id", view.ID),
		slog.String("email", client.Email),
		slog.String("message_id", messageID),
	)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.List(ctx)
	if err != nil {
		log.Error("appointments list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("appointments list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": items,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("appointments get: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("appointments get: not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
			return
		}
		log.Error("appointments get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("appointments get: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("appointments update: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	if err := h.service.UpdateStatus(ctx, id, req); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			log.Warn("appointments update: not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			log.Warn("appointments update: invalid transition",
				slog.String("appointment_id", id),
				slog.String("status", req.Status),
			)
			transport.WriteError(w, http.StatusUnprocessableEntity, "invalid status transition", nil)
		default:
			log.Error("appointments update: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("appointments update: ok", slog.String("appointment_id", id), slog.String("status", req.Status))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("appointments delete: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("appointments delete: not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
			return
		}
		log.Error("appointments delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("appointments delete: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	log := h.log
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		log = log.With(slog.String("request_id", id))
	}
	if claims := middleware.SessionFromContext(r.Context()); claims != nil {
		log = log.With(slog.String("session_user", claims.Subject))
	}
	return log
}
