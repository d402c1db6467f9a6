package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/auth"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrUserReferenced = errors.New("user still owns schedules or appointments")
)

// OwnershipCounter reports how many rows in other collections still point at
// a user. Deletion is restricted while any reference remains.
type OwnershipCounter interface {
	CountSchedulesByProfessional(ctx context.Context, professionalID string) (int64, error)
	CountAppointmentsByClient(ctx context.Context, clientID string) (int64, error)
}

type Service struct {
	repo     Repository
	counter  OwnershipCounter
	location *time.Location
}

func NewService(repo Repository, counter OwnershipCounter, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		counter:  counter,
		location: location,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return User{}, err
	}

	now := time.Now().In(s.location)
	user := User{
		ID:                primitive.NewObjectID().Hex(),
		Name:              strings.TrimSpace(req.Name),
		Email:             normalizeEmail(req.Email),
		PasswordHash:      hash,
		Role:              req.Role,
		CreatedAt:         now,
		UpdatedAt:         now,
		Bio:               strings.TrimSpace(req.Bio),
		Specialty:         strings.TrimSpace(req.Specialty),
		Phone:             strings.TrimSpace(req.Phone),
		ConsultationPrice: req.ConsultationPrice,
		Photo:             strings.TrimSpace(req.Photo),
		Instagram:         strings.TrimSpace(req.Instagram),
		LinkedIn:          strings.TrimSpace(req.LinkedIn),
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	user, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// FindByEmail is the auth-facing lookup; a missing user surfaces as
// ErrNotFound without leaking which part of the credentials was wrong.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, error) {
	filter.Role = strings.TrimSpace(filter.Role)
	return s.repo.List(ctx, filter)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) error {
	set := bson.M{"updatedAt": time.Now().In(s.location)}
	if req.Name != nil {
		set["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		set["email"] = normalizeEmail(*req.Email)
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return err
		}
		set["passwordHash"] = hash
	}
	if req.Bio != nil {
		set["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.Specialty != nil {
		set["specialty"] = strings.TrimSpace(*req.Specialty)
	}
	if req.Phone != nil {
		set["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.ConsultationPrice != nil {
		set["consultationPrice"] = *req.ConsultationPrice
	}
	if req.Photo != nil {
		set["photo"] = strings.TrimSpace(*req.Photo)
	}
	if req.Instagram != nil {
		set["instagram"] = strings.TrimSpace(*req.Instagram)
	}
	if req.LinkedIn != nil {
		set["linkedin"] = strings.TrimSpace(*req.LinkedIn)
	}

	matched, err := s.repo.Update(ctx, strings.TrimSpace(id), set)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if !matched {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)

	if s.counter != nil {
		schedules, err := s.counter.CountSchedulesByProfessional(ctx, id)
		if err != nil {
			return err
		}
		appointments, err := s.counter.CountAppointmentsByClient(ctx, id)
		if err != nil {
			return err
		}
		if schedules > 0 || appointments > 0 {
			return ErrUserReferenced
		}
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
