package mongo

import (
	"context"
	"errors"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const routineCollectionName = "routines"

type mongoRoutineRepository struct {
	collection *mongo.Collection
}

func NewMongoRoutineRepository(db *mongo.Database) repository.RoutineRepository {
	return &mongoRoutineRepository{
		collection: db.Collection(routineCollectionName),
	}
}

func (r *mongoRoutineRepository) Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error) {
	if routine.Name == "" || routine.CreatedBy == "" {
		return primitive.NilObjectID, errors.New("routine name and creator are required")
	}

	routine.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	routine.CreatedAt = now
	routine.UpdatedAt = now
	if routine.Exercises == nil {
		routine.Exercises = []domain.RoutineExercise{}
	}

	if _, err := r.collection.InsertOne(ctx, routine); err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return routine.ID, nil
}

func (r *mongoRoutineRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error) {
	var routine domain.Routine
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&routine); err != nil {
		return nil, mapError(err)
	}
	return &routine, nil
}

func (r *mongoRoutineRepository) ExistsActive(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "isActive": true}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountExercises reads the size of the embedded exercise list server-side.
func (r *mongoRoutineRepository) CountExercises(ctx context.Context, id primitive.ObjectID) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$project", Value: bson.M{
			"count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$exercises", bson.A{}}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Count int `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, repository.ErrNotFound
	}
	return rows[0].Count, nil
}

// Update replaces the editable fields, including the exercise list.
// Sessions already started keep the count they snapshotted.
func (r *mongoRoutineRepository) Update(ctx context.Context, routine *domain.Routine) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": routine.ID, "createdBy": routine.CreatedBy, "isActive": true}
	update := bson.M{
		"$set": bson.M{
			"name":            routine.Name,
			"description":     routine.Description,
			"category":        routine.Category,
			"difficulty":      routine.Difficulty,
			"durationMinutes": routine.DurationMinutes,
			"ageGroup":        routine.AgeGroup,
			"exercises":       routine.Exercises,
			"updatedAt":       now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	routine.UpdatedAt = now
	return nil
}

func (r *mongoRoutineRepository) Deactivate(ctx context.Context, id primitive.ObjectID, createdBy string) error {
	filter := bson.M{"_id": id, "createdBy": createdBy, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoRoutineRepository) IncrementAssignments(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"totalAssignments": 1}})
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureRoutineIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "createdBy", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "ageGroup", Value: 1}, {Key: "isActive", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
