package users

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/auth"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	items map[string]User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]User)}
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func (f *fakeRepo) Insert(ctx context.Context, user User) error {
	for _, existing := range f.items {
		if existing.Email == user.Email {
			return duplicateKeyError()
		}
	}
	f.items[user.ID] = user
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id string) (User, error) {
	user, ok := f.items[id]
	if !ok {
		return User{}, mongo.ErrNoDocuments
	}
	return user, nil
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	for _, user := range f.items {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, mongo.ErrNoDocuments
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]User, error) {
	items := make([]User, 0, len(f.items))
	for _, user := range f.items {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		items = append(items, user)
	}
	return items, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, set bson.M) (bool, error) {
	user, ok := f.items[id]
	if !ok {
		return false, nil
	}
	if v, ok := set["email"]; ok {
		email := v.(string)
		for otherID, other := range f.items {
			if otherID != id && other.Email == email {
				return false, duplicateKeyError()
			}
		}
		user.Email = email
	}
	if v, ok := set["name"]; ok {
		user.Name = v.(string)
	}
	if v, ok := set["passwordHash"]; ok {
		user.PasswordHash = v.(string)
	}
	if v, ok := set["specialty"]; ok {
		user.Specialty = v.(string)
	}
	f.items[id] = user
	return true, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := f.items[id]; !ok {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

type fakeCounter struct {
	schedules    int64
	appointments int64
}

func (f fakeCounter) CountSchedulesByProfessional(ctx context.Context, professionalID string) (int64, error) {
	return f.schedules, nil
}

func (f fakeCounter) CountAppointmentsByClient(ctx context.Context, clientID string) (int64, error) {
	return f.appointments, nil
}

func newTestService(repo *fakeRepo, counter OwnershipCounter) *Service {
	return NewService(repo, counter, time.UTC)
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, fakeCounter{})

	user, err := service.Register(context.Background(), RegisterRequest{
		Name:     "Ana Souza",
		Email:    "Ana@X.com",
		Password: "segredo1",
		Role:     RoleClient,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.Email != "ana@x.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "segredo1" || user.PasswordHash == "" {
		t.Fatalf("password stored without hashing")
	}
	if err := auth.ComparePassword(user.PasswordHash, "segredo1"); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, fakeCounter{})

	req := RegisterRequest{Name: "Ana", Email: "ana@x.com", Password: "segredo1", Role: RoleClient}
	if _, err := service.Register(context.Background(), req); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	req.Name = "Outra Ana"
	if _, err := service.Register(context.Background(), req); err != ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected 1 stored user, got %d", len(repo.items))
	}
}

func TestGetNotFound(t *testing.T) {
	service := newTestService(newFakeRepo(), fakeCounter{})

	if _, err := service.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetIdempotent(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, fakeCounter{})

	created, err := service.Register(context.Background(), RegisterRequest{
		Name: "Bruno", Email: "bruno@x.com", Password: "segredo1", Role: RoleProfessional,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	first, err := service.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	second, err := service.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestUpdateRehashesPassword(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, fakeCounter{})

	created, err := service.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@x.com", Password: "segredo1", Role: RoleClient,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	newPassword := "novosegredo"
	if err := service.Update(context.Background(), created.ID, UpdateRequest{Password: &newPassword}); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	stored := repo.items[created.ID]
	if stored.PasswordHash == newPassword {
		t.Fatalf("password stored without hashing")
	}
	if stored.PasswordHash == created.PasswordHash {
		t.Fatalf("password hash not rotated")
	}
	if err := auth.ComparePassword(stored.PasswordHash, newPassword); err != nil {
		t.Fatalf("stored hash does not match new password: %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	service := newTestService(newFakeRepo(), fakeCounter{})

	name := "Qualquer"
	if err := service.Update(context.Background(), "missing", UpdateRequest{Name: &name}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRestrictedWhileReferenced(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, fakeCounter{schedules: 2})

	created, err := service.Register(context.Background(), RegisterRequest{
		Name: "Helena", Email: "helena@x.com", Password: "segredo1", Role: RoleProfessional,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := service.Delete(context.Background(), created.ID); err != ErrUserReferenced {
		t.Fatalf("expected ErrUserReferenced, got %v", err)
	}
	if _, ok := repo.items[created.ID]; !ok {
		t.Fatalf("user deleted despite references")
	}
}

func TestDeleteUnreferenced(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, fakeCounter{})

	created, err := service.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@x.com", Password: "segredo1", Role: RoleClient,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := service.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := service.Delete(context.Background(), created.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListFiltersByRole(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, fakeCounter{})

	if _, err := service.Register(context.Background(), RegisterRequest{
		Name: "Helena", Email: "helena@x.com", Password: "segredo1", Role: RoleProfessional, Specialty: "Odontologia",
	}); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if _, err := service.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@x.com", Password: "segredo1", Role: RoleClient,
	}); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	professionals, err := service.List(context.Background(), ListFilter{Role: RoleProfessional})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(professionals) != 1 {
		t.Fatalf("expected 1 professional, got %d", len(professionals))
	}
	if professionals[0].Specialty != "Odontologia" {
		t.Fatalf("unexpected specialty: %q", professionals[0].Specialty)
	}
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, fakeCounter{})

	user, err := service.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@x.com", Password: "segredo1", Role: RoleClient,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	raw, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if strings.Contains(string(raw), "passwordHash") || strings.Contains(string(raw), user.PasswordHash) {
		t.Fatalf("password hash leaked into response body: %s", raw)
	}
}
