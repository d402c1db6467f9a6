package sessions

import (
	"context"
	"errors"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/auth"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/users"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionsDisabled   = errors.New("sessions disabled: no signing secret configured")
)

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

type Service struct {
	finder  UserFinder
	manager *auth.Manager
}

func NewService(finder UserFinder, manager *auth.Manager) *Service {
	return &Service{
		finder:  finder,
		manager: manager,
	}
}

type LoginResult struct {
	AccessToken string              `json:"access_token"`
	User        users.PublicProfile `json:"user"`
}

// Login authenticates by email and password and issues a signed session
// token. Unknown email and wrong password produce the same error so the
// response does not reveal which one failed. A nil manager (no JWT secret
// configured) reports ErrSessionsDisabled instead of panicking.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if s.manager == nil {
		return LoginResult{}, ErrSessionsDisabled
	}

	user, err := s.finder.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.manager.NewAccessToken(user.ID, user.Email)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		AccessToken: token,
		User:        user.Public(),
	}, nil
}
