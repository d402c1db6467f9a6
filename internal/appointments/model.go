package appointments

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// transitions is the allowed status state machine. Cancelled is terminal.
var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	ClientID   string    `bson:"clientId" json:"clientId"`
	ScheduleID string    `bson:"scheduleId" json:"scheduleId"`
	Status     string    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

type ClientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ProfessionalRef struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Specialty         string  `json:"specialty,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	ConsultationPrice float64 `json:"consultationPrice,omitempty"`
}

type ScheduleRef struct {
	ID           string          `json:"id"`
	Date         string          `json:"date"`
	Time         string          `json:"time"`
	Professional ProfessionalRef `json:"professional"`
}

// View is the denormalized response shape: the stored foreign keys are
// replaced by the joined client, schedule and professional projections.
type View struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Client    ClientRef   `json:"client"`
	Schedule  ScheduleRef `json:"schedule"`
}

type CreateRequest struct {
	ClientID   string `json:"clientId" validate:"required"`
	ScheduleID string `json:"scheduleId" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// UpdateRequest carries the only field mutable after booking.
type UpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}
