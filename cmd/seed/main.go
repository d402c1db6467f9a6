package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/auth"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/config"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/db"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/users"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedUser struct {
	Name              string
	Email             string
	Role              string
	Bio               string
	Specialty         string
	Phone             string
	ConsultationPrice float64
}

type seedSlot struct {
	Date string
	Time string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		log.Fatal("SEED_PASSWORD is required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	demoUsers := []seedUser{
		{
			Name:              "Dra. Helena Prado",
			Email:             "helena.prado@exemplo.com",
			Role:              users.RoleProfessional,
			Bio:               "Odontologia clínica e estética, 12 anos de experiência.",
			Specialty:         "Odontologia",
			Phone:             "+5511988880001",
			ConsultationPrice: 250,
		},
		{
			Name:              "Dr. Marcos Lima",
			Email:             "marcos.lima@exemplo.com",
			Role:              users.RoleProfessional,
			Bio:               "Dermatologia geral e acompanhamento de tratamentos.",
			Specialty:         "Dermatologia",
			Phone:             "+5511988880002",
			ConsultationPrice: 300,
		},
		{
			Name:  "Ana Souza",
			Email: "ana.souza@exemplo.com",
			Role:  users.RoleClient,
		},
	}

	now := time.Now().In(cfg.Timezone)
	professionalIDs := make(map[string]string)

	for _, u := range demoUsers {
		id := primitive.NewObjectID().Hex()
		filter := bson.M{"email": u.Email}
		update := bson.M{
			"$setOnInsert": bson.M{
				"_id":               id,
				"name":              u.Name,
				"email":             u.Email,
				"passwordHash":      hash,
				"role":              u.Role,
				"bio":               u.Bio,
				"specialty":         u.Specialty,
				"phone":             u.Phone,
				"consultationPrice": u.ConsultationPrice,
				"createdAt":         now,
				"updatedAt":         now,
			},
		}
		if _, err := cols.Users.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			log.Fatal(err)
		}

		var stored users.User
		if err := cols.Users.FindOne(ctx, filter).Decode(&stored); err != nil {
			log.Fatal(err)
		}
		if stored.Role == users.RoleProfessional {
			professionalIDs[stored.Email] = stored.ID
		}
		log.Printf("user %s (%s)", stored.Email, stored.Role)
	}

	slots := []seedSlot{
		{Date: now.AddDate(0, 0, 1).Format("2006-01-02"), Time: "09:00"},
		{Date: now.AddDate(0, 0, 1).Format("2006-01-02"), Time: "10:00"},
		{Date: now.AddDate(0, 0, 2).Format("2006-01-02"), Time: "14:00"},
	}

	for _, professionalID := range professionalIDs {
		for _, slot := range slots {
			filter := bson.M{
				"professionalId": professionalID,
				"date":           slot.Date,
				"time":           slot.Time,
			}
			update := bson.M{
				"$setOnInsert": bson.M{
					"_id":       primitive.NewObjectID().Hex(),
					"available": true,
					"createdAt": now,
				},
			}
			if _, err := cols.Schedules.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
				log.Fatal(err)
			}
		}
		log.Printf("schedules seeded for professional %s", professionalID)
	}
}
