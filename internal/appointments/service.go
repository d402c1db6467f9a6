package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/schedules"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrClientNotFound    = errors.New("client not found")
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrScheduleTaken     = errors.New("schedule already booked")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type UserSource interface {
	FindByID(ctx context.Context, id string) (users.User, error)
}

// ScheduleSource is the slice of the schedule package booking needs:
// lookups plus the atomic claim/release pair on the available flag.
type ScheduleSource interface {
	FindByID(ctx context.Context, id string) (schedules.Schedule, error)
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type Service struct {
	repo     Repository
	userSrc  UserSource
	schedSrc ScheduleSource
	location *time.Location
}

func NewService(repo Repository, userSrc UserSource, schedSrc ScheduleSource, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		userSrc:  userSrc,
		schedSrc: schedSrc,
		location: location,
	}
}

// Create books a schedule for a client. Both references are resolved before
// anything is written; the slot is then claimed with a conditional update so
// two concurrent bookings cannot both succeed, and a failed insert releases
// the claim again.
func (s *Service) Create(ctx context.Context, req CreateRequest) (View, error) {
	clientID := strings.TrimSpace(req.ClientID)
	scheduleID := strings.TrimSpace(req.ScheduleID)

	client, err := s.userSrc.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return View{}, ErrClientNotFound
		}
		return View{}, err
	}

	schedule, err := s.schedSrc.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return View{}, ErrScheduleNotFound
		}
		return View{}, err
	}

	claimed, err := s.schedSrc.Claim(ctx, schedule.ID)
	if err != nil {
		return View{}, err
	}
	if !claimed {
		return View{}, ErrScheduleTaken
	}

	appointment := Appointment{
		ID:         primitive.NewObjectID().Hex(),
		ClientID:   client.ID,
		ScheduleID: schedule.ID,
		Status:     req.Status,
		CreatedAt:  time.Now().In(s.location),
	}

	if err := s.repo.Insert(ctx, appointment); err != nil {
		_ = s.schedSrc.Release(ctx, schedule.ID)
		return View{}, err
	}

	schedule.Available = false
	return s.buildView(ctx, appointment, &client, &schedule)
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	appointment, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return View{}, ErrNotFound
		}
		return View{}, err
	}
	return s.buildView(ctx, appointment, nil, nil)
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(items))
	for _, appointment := range items {
		view, err := s.buildView(ctx, appointment, nil, nil)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// UpdateStatus applies the allowed transitions: pending -> confirmed,
// pending -> cancelled, confirmed -> cancelled. It does not touch the
// schedule's availability; freeing a cancelled slot is the caller's
// follow-up patch on the schedule itself.
func (s *Service) UpdateStatus(ctx context.Context, id string, req UpdateRequest) error {
	id = strings.TrimSpace(id)

	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}

	if !transitionAllowed(appointment.Status, req.Status) {
		return ErrInvalidTransition
	}

	matched, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return err
	}
	if !matched {
		return ErrNotFound
	}
	return nil
}

// Delete removes the booking row only. The schedule keeps whatever
// availability it had; compensating it is part of the documented two-step
// cancellation contract.
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *Service) buildView(ctx context.Context, appointment Appointment, client *users.User, schedule *schedules.Schedule) (View, error) {
	if client == nil {
		found, err := s.userSrc.FindByID(ctx, appointment.ClientID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return View{}, err
		}
		client = &found
	}

	if schedule == nil {
		found, err := s.schedSrc.FindByID(ctx, appointment.ScheduleID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return View{}, err
		}
		schedule = &found
	}

	var professional users.User
	if schedule.ProfessionalID != "" {
		found, err := s.userSrc.FindByID(ctx, schedule.ProfessionalID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return View{}, err
		}
		professional = found
	}

	return View{
		ID:        appointment.ID,
		Status:    appointment.Status,
		CreatedAt: appointment.CreatedAt,
		Client: ClientRef{
			ID:   client.ID,
			Name: client.Name,
		},
		Schedule: ScheduleRef{
			ID:   schedule.ID,
			Date: schedule.Date,
			Time: schedule.Time,
			Professional: ProfessionalRef{
				ID:                professional.ID,
				Name:              professional.Name,
				Specialty:         professional.Specialty,
				Phone:             professional.Phone,
				ConsultationPrice: professional.ConsultationPrice,
			},
		},
	}, nil
}
