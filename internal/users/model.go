package users

import "time"

const (
	RoleClient       = "client"
	RoleProfessional = "professional"
)

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`

	// Professional-only profile fields.
	Bio               string  `bson:"bio,omitempty" json:"bio,omitempty"`
	Specialty         string  `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Phone             string  `bson:"phone,omitempty" json:"phone,omitempty"`
	ConsultationPrice float64 `bson:"consultationPrice,omitempty" json:"consultationPrice,omitempty"`
	Photo             string  `bson:"photo,omitempty" json:"photo,omitempty"`
	Instagram         string  `bson:"instagram,omitempty" json:"instagram,omitempty"`
	LinkedIn          string  `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
}

// PublicProfile is the projection returned next to a session token.
type PublicProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Photo string `json:"photo,omitempty"`
}

func (u User) Public() PublicProfile {
	return PublicProfile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Photo: u.Photo,
	}
}

type RegisterRequest struct {
	Name              string  `json:"name" validate:"required"`
	Email             string  `json:"email" validate:"required,email"`
	Password          string  `json:"password" validate:"required,min=6"`
	Role              string  `json:"role" validate:"required,oneof=client professional"`
	Bio               string  `json:"bio" validate:"omitempty"`
	Specialty         string  `json:"specialty" validate:"omitempty"`
	Phone             string  `json:"phone" validate:"omitempty,phone"`
	ConsultationPrice float64 `json:"consultationPrice" validate:"omitempty,gte=0"`
	Photo             string  `json:"photo" validate:"omitempty,url"`
	Instagram         string  `json:"instagram" validate:"omitempty,url"`
	LinkedIn          string  `json:"linkedin" validate:"omitempty,url"`
}

// UpdateRequest enumerates the fields mutable after registration. Role is
// fixed at registration; a nil pointer means "leave unchanged".
type UpdateRequest struct {
	Name              *string  `json:"name" validate:"omitempty,min=1"`
	Email             *string  `json:"email" validate:"omitempty,email"`
	Password          *string  `json:"password" validate:"omitempty,min=6"`
	Bio               *string  `json:"bio"`
	Specialty         *string  `json:"specialty"`
	Phone             *string  `json:"phone" validate:"omitempty,phone"`
	ConsultationPrice *float64 `json:"consultationPrice" validate:"omitempty,gte=0"`
	Photo             *string  `json:"photo" validate:"omitempty,url"`
	Instagram         *string  `json:"instagram" validate:"omitempty,url"`
	LinkedIn          *string  `json:"linkedin" validate:"omitempty,url"`
}

type ListFilter struct {
	Role string
}
