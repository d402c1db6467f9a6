package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/auth"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/users"
)

type fakeFinder struct {
	items map[string]users.User
}

func (f fakeFinder) FindByEmail(ctx context.Context, email string) (users.User, error) {
	user, ok := f.items[email]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return user, nil
}

func newTestService(t *testing.T) (*Service, *auth.Manager) {
	t.Helper()

	hash, err := auth.HashPassword("segredo1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	finder := fakeFinder{items: map[string]users.User{
		"ana@x.com": {
			ID:           "user-1",
			Name:         "Ana Souza",
			Email:        "ana@x.com",
			PasswordHash: hash,
			Role:         users.RoleClient,
		},
	}}
	manager := &auth.Manager{
		Secret:    []byte("test-secret"),
		AccessTTL: time.Hour,
		Issuer:    "agendamentos-plataforma",
	}
	return NewService(finder, manager), manager
}

func TestLoginIssuesToken(t *testing.T) {
	service, manager := newTestService(t)

	result, err := service.Login(context.Background(), "ana@x.com", "segredo1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if result.User.ID != "user-1" || result.User.Email != "ana@x.com" {
		t.Fatalf("unexpected profile: %+v", result.User)
	}

	claims, err := manager.Parse(result.AccessToken)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Email != "ana@x.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Login(context.Background(), "ana@x.com", "errada"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWithoutManager(t *testing.T) {
	hash, err := auth.HashPassword("segredo1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	finder := fakeFinder{items: map[string]users.User{
		"ana@x.com": {ID: "user-1", Email: "ana@x.com", PasswordHash: hash},
	}}
	service := NewService(finder, nil)

	if _, err := service.Login(context.Background(), "ana@x.com", "segredo1"); err != ErrSessionsDisabled {
		t.Fatalf("expected ErrSessionsDisabled, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Login(context.Background(), "ninguem@x.com", "segredo1"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
