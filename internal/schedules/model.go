package schedules

import "time"

type Schedule struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	ProfessionalID string    `bson:"professionalId" json:"professionalId"`
	Date           string    `bson:"date" json:"date"`
	Time           string    `bson:"time" json:"time"`
	Available      bool      `bson:"available" json:"available"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// Professional is the public projection of the owning user embedded in
// schedule responses.
type Professional struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Specialty         string  `json:"specialty,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	ConsultationPrice float64 `json:"consultationPrice,omitempty"`
	Photo             string  `json:"photo,omitempty"`
	Bio               string  `json:"bio,omitempty"`
}

type View struct {
	ID           string       `json:"id"`
	Date         string       `json:"date"`
	Time         string       `json:"time"`
	Available    bool         `json:"available"`
	Professional Professional `json:"professional"`
}

type CreateRequest struct {
	ProfessionalID string `json:"professionalId" validate:"required"`
	Date           string `json:"date" validate:"required,date"`
	Time           string `json:"time" validate:"required,clock"`
	// Accepted for wire compatibility with older clients; new slots always
	// start available.
	Available *bool `json:"available"`
}

// UpdateRequest enumerates the fields mutable after creation. Flipping
// Available back to true is how a freed slot is republished after a
// cancellation.
type UpdateRequest struct {
	Date      *string `json:"date" validate:"omitempty,date"`
	Time      *string `json:"time" validate:"omitempty,clock"`
	Available *bool   `json:"available"`
}
