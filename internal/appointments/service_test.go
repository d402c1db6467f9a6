package appointments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/schedules"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/users"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeUsers struct {
	items map[string]users.User
}

func (f fakeUsers) FindByID(ctx context.Context, id string) (users.User, error) {
	user, ok := f.items[id]
	if !ok {
		return users.User{}, mongo.ErrNoDocuments
	}
	return user, nil
}

type fakeSchedules struct {
	mu    sync.Mutex
	items map[string]schedules.Schedule
}

func (f *fakeSchedules) FindByID(ctx context.Context, id string) (schedules.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	schedule, ok := f.items[id]
	if !ok {
		return schedules.Schedule{}, mongo.ErrNoDocuments
	}
	return schedule, nil
}

func (f *fakeSchedules) Claim(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	schedule, ok := f.items[id]
	if !ok || !schedule.Available {
		return false, nil
	}
	schedule.Available = false
	f.items[id] = schedule
	return true, nil
}

func (f *fakeSchedules) Release(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if schedule, ok := f.items[id]; ok {
		schedule.Available = true
		f.items[id] = schedule
	}
	return nil
}

func (f *fakeSchedules) available(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].Available
}

type fakeAppointmentRepo struct {
	mu    sync.Mutex
	items map[string]Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{items: make(map[string]Appointment)}
}

func (f *fakeAppointmentRepo) Insert(ctx context.Context, appointment Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[appointment.ID] = appointment
	return nil
}

func (f *fakeAppointmentRepo) FindByID(ctx context.Context, id string) (Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appointment, ok := f.items[id]
	if !ok {
		return Appointment{}, mongo.ErrNoDocuments
	}
	return appointment, nil
}

func (f *fakeAppointmentRepo) List(ctx context.Context) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]Appointment, 0, len(f.items))
	for _, appointment := range f.items {
		items = append(items, appointment)
	}
	return items, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id, status string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appointment, ok := f.items[id]
	if !ok {
		return false, nil
	}
	appointment.Status = status
	f.items[id] = appointment
	return true, nil
}

func (f *fakeAppointmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

func (f *fakeAppointmentRepo) CountByClient(ctx context.Context, clientID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, appointment := range f.items {
		if appointment.ClientID == clientID {
			count++
		}
	}
	return count, nil
}

func fixtures() (fakeUsers, *fakeSchedules, *fakeAppointmentRepo, *Service) {
	userSrc := fakeUsers{items: map[string]users.User{
		"client-1": {ID: "client-1", Name: "Ana Souza", Email: "ana@x.com", Role: users.RoleClient},
		"prof-1": {
			ID: "prof-1", Name: "Dra. Helena Prado", Role: users.RoleProfessional,
			Specialty: "Odontologia", Phone: "+5511988880001", ConsultationPrice: 250,
		},
	}}
	schedSrc := &fakeSchedules{items: map[string]schedules.Schedule{
		"sched-1": {ID: "sched-1", ProfessionalID: "prof-1", Date: "2025-01-10", Time: "09:00", Available: true},
	}}
	repo := newFakeAppointmentRepo()
	service := NewService(repo, userSrc, schedSrc, time.UTC)
	return userSrc, schedSrc, repo, service
}

func TestCreateBooksSchedule(t *testing.T) {
	_, schedSrc, repo, service := fixtures()

	view, err := service.Create(context.Background(), CreateRequest{
		ClientID:   "client-1",
		ScheduleID: "sched-1",
		Status:     StatusPending,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if view.Status != StatusPending {
		t.Fatalf("expected pending status, got %q", view.Status)
	}
	if schedSrc.available("sched-1") {
		t.Fatalf("schedule should be unavailable after booking")
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(repo.items))
	}
}

func TestCreateUnknownClient(t *testing.T) {
	_, schedSrc, repo, service := fixtures()

	_, err := service.Create(context.Background(), CreateRequest{
		ClientID:   "missing",
		ScheduleID: "sched-1",
		Status:     StatusPending,
	})
	if err != ErrClientNotFound {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("no appointment should be written")
	}
	if !schedSrc.available("sched-1") {
		t.Fatalf("schedule must stay available")
	}
}

func TestCreateUnknownSchedule(t *testing.T) {
	_, _, repo, service := fixtures()

	_, err := service.Create(context.Background(), CreateRequest{
		ClientID:   "client-1",
		ScheduleID: "missing",
		Status:     StatusPending,
	})
	if err != ErrScheduleNotFound {
		t.Fatalf("expected ErrScheduleNotFound, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("no appointment should be written")
	}
}

func TestCreateScheduleAlreadyTaken(t *testing.T) {
	_, _, repo, service := fixtures()

	first, err := service.Create(context.Background(), CreateRequest{
		ClientID: "client-1", ScheduleID: "sched-1", Status: StatusPending,
	})
	if err != nil {
		t.Fatalf("first Create error: %v", err)
	}

	_, err = service.Create(context.Background(), CreateRequest{
		ClientID: "client-1", ScheduleID: "sched-1", Status: StatusPending,
	})
	if err != ErrScheduleTaken {
		t.Fatalf("expected ErrScheduleTaken, got %v", err)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected only the first booking, got %d", len(repo.items))
	}
	if _, ok := repo.items[first.ID]; !ok {
		t.Fatalf("first booking lost")
	}
}

func TestConcurrentBookingsSingleWinner(t *testing.T) {
	_, _, repo, service := fixtures()

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Create(context.Background(), CreateRequest{
				ClientID: "client-1", ScheduleID: "sched-1", Status: StatusPending,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch err {
		case nil:
			won++
		case ErrScheduleTaken:
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one winning booking, got %d", won)
	}
	if lost != attempts-1 {
		t.Fatalf("expected %d rejected bookings, got %d", attempts-1, lost)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected 1 stored appointment, got %d", len(repo.items))
	}
}

func TestViewDenormalization(t *testing.T) {
	_, _, _, service := fixtures()

	created, err := service.Create(context.Background(), CreateRequest{
		ClientID: "client-1", ScheduleID: "sched-1", Status: StatusPending,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	views, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(views))
	}

	view := views[0]
	if view.ID != created.ID {
		t.Fatalf("unexpected id %q", view.ID)
	}
	if view.Client.Name != "Ana Souza" {
		t.Fatalf("client not joined: %+v", view.Client)
	}
	if view.Schedule.Date != "2025-01-10" || view.Schedule.Time != "09:00" {
		t.Fatalf("schedule not joined: %+v", view.Schedule)
	}
	if view.Schedule.Professional.Name != "Dra. Helena Prado" || view.Schedule.Professional.Specialty != "Odontologia" {
		t.Fatalf("professional not joined: %+v", view.Schedule.Professional)
	}
}

func TestStatusTransitions(t *testing.T) {
	_, _, _, service := fixtures()

	created, err := service.Create(context.Background(), CreateRequest{
		ClientID: "client-1", ScheduleID: "sched-1", Status: StatusPending,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := service.UpdateStatus(context.Background(), created.ID, UpdateRequest{Status: StatusConfirmed}); err != nil {
		t.Fatalf("pending -> confirmed should be allowed: %v", err)
	}
	if err := service.UpdateStatus(context.Background(), created.ID, UpdateRequest{Status: StatusPending}); err != ErrInvalidTransition {
		t.Fatalf("confirmed -> pending must be rejected, got %v", err)
	}
	if err := service.UpdateStatus(context.Background(), created.ID, UpdateRequest{Status: StatusCancelled}); err != nil {
		t.Fatalf("confirmed -> cancelled should be allowed: %v", err)
	}
	if err := service.UpdateStatus(context.Background(), created.ID, UpdateRequest{Status: StatusConfirmed}); err != ErrInvalidTransition {
		t.Fatalf("cancelled is terminal, got %v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	_, _, _, service := fixtures()

	if err := service.UpdateStatus(context.Background(), "missing", UpdateRequest{Status: StatusConfirmed}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Mirrors the product flow: book a slot, confirm it, then remove the booking.
// Deleting the appointment must not silently free the schedule; that is the
// caller's follow-up patch.
func TestBookingLifecycle(t *testing.T) {
	_, schedSrc, _, service := fixtures()

	booked, err := service.Create(context.Background(), CreateRequest{
		ClientID: "client-1", ScheduleID: "sched-1", Status: StatusPending,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if schedSrc.available("sched-1") {
		t.Fatalf("slot should be claimed")
	}

	if err := service.UpdateStatus(context.Background(), booked.ID, UpdateRequest{Status: StatusConfirmed}); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	fetched, err := service.Get(context.Background(), booked.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if fetched.Status != StatusConfirmed {
		t.Fatalf("expected confirmed, got %q", fetched.Status)
	}

	if err := service.Delete(context.Background(), booked.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := service.Get(context.Background(), booked.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if schedSrc.available("sched-1") {
		t.Fatalf("delete must not free the schedule")
	}
}
