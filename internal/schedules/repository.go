package schedules

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, schedule Schedule) error
	FindByID(ctx context.Context, id string) (Schedule, error)
	List(ctx context.Context) ([]Schedule, error)
	Update(ctx context.Context, id string, set bson.M) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
	CountByProfessional(ctx context.Context, professionalID string) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, schedule Schedule) error {
	_, err := r.col.InsertOne(ctx, schedule)
	return err
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (Schedule, error) {
	var schedule Schedule
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&schedule)
	return schedule, err
}

func (r *MongoRepository) List(ctx context.Context) ([]Schedule, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "time", Value: 1},
	})

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Schedule, 0)
	for cursor.Next(ctx) {
		var schedule Schedule
		if err := cursor.Decode(&schedule); err != nil {
			return nil, err
		}
		items = append(items, schedule)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, set bson.M) (bool, error) {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Claim atomically flips an available slot to unavailable. The filter on
// available guarantees at most one concurrent booking can match.
func (r *MongoRepository) Claim(ctx context.Context, id string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "available": true},
		bson.M{"$set": bson.M{"available": false}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoRepository) Release(ctx context.Context, id string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"available": true}},
	)
	return err
}

func (r *MongoRepository) CountByProfessional(ctx context.Context, professionalID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"professionalId": professionalID})
}
