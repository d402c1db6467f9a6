package schedules

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound             = errors.New("schedule not found")
	ErrProfessionalNotFound = errors.New("professional not found")
)

type ProfessionalSource interface {
	FindByID(ctx context.Context, id string) (users.User, error)
}

type Service struct {
	repo          Repository
	professionals ProfessionalSource
	location      *time.Location
}

func NewService(repo Repository, professionals ProfessionalSource, location *time.Location) *Service {
	return &Service{
		repo:          repo,
		professionals: professionals,
		location:      location,
	}
}

// Create registers a new slot for a professional. The caller-supplied
// available flag is ignored: a fresh slot is always open for booking.
func (s *Service) Create(ctx context.Context, req CreateRequest) (View, error) {
	professional, err := s.professionals.FindByID(ctx, strings.TrimSpace(req.ProfessionalID))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return View{}, ErrProfessionalNotFound
		}
		return View{}, err
	}

	schedule := Schedule{
		ID:             primitive.NewObjectID().Hex(),
		ProfessionalID: professional.ID,
		Date:           req.Date,
		Time:           req.Time,
		Available:      true,
		CreatedAt:      time.Now().In(s.location),
	}

	if err := s.repo.Insert(ctx, schedule); err != nil {
		return View{}, err
	}
	return buildView(schedule, professional), nil
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	schedule, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return View{}, ErrNotFound
		}
		return View{}, err
	}

	professional, err := s.professionals.FindByID(ctx, schedule.ProfessionalID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return View{}, err
	}
	return buildView(schedule, professional), nil
}

// List returns every slot ordered by date then time, each joined with the
// owning professional's public fields.
func (s *Service) List(ctx context.Context) ([]View, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	professionals := make(map[string]users.User)
	views := make([]View, 0, len(items))
	for _, schedule := range items {
		professional, ok := professionals[schedule.ProfessionalID]
		if !ok {
			professional, err = s.professionals.FindByID(ctx, schedule.ProfessionalID)
			if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, err
			}
			professionals[schedule.ProfessionalID] = professional
		}
		views = append(views, buildView(schedule, professional))
	}
	return views, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) error {
	id = strings.TrimSpace(id)

	set := bson.M{}
	if req.Date != nil {
		set["date"] = *req.Date
	}
	if req.Time != nil {
		set["time"] = *req.Time
	}
	if req.Available != nil {
		set["available"] = *req.Available
	}

	// An empty patch is a no-op, but the target must still exist.
	if len(set) == 0 {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return err
		}
		return nil
	}

	matched, err := s.repo.Update(ctx, id, set)
	if err != nil {
		return err
	}
	if !matched {
		return ErrNotFound
	}
	return nil
}

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

func buildView(schedule Schedule, professional users.User) View {
	return View{
		ID:        schedule.ID,
		Date:      schedule.Date,
		Time:      schedule.Time,
		Available: schedule.Available,
		Professional: Professional{
			ID:                professional.ID,
			Name:              professional.Name,
			Specialty:         professional.Specialty,
			Phone:             professional.Phone,
			ConsultationPrice: professional.ConsultationPrice,
			Photo:             professional.Photo,
			Bio:               professional.Bio,
		},
	}
}
