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

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new exercise into the database.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.CreatedBy == "" {
		return primitive.NilObjectID, errors.New("exercise name and creator are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, exercise); err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return exercise.ID, nil
}

// GetByID retrieves an exercise by its ID, active or not.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise); err != nil {
		return nil, mapError(err)
	}
	return &exercise, nil
}

// Update modifies the catalog fields of an active exercise owned by exercise.CreatedBy.
// Ownership and media keys are never changed here.
func (r *mongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": exercise.ID, "createdBy": exercise.CreatedBy, "isActive": true}
	update := bson.M{
		"$set": bson.M{
			"name":            exercise.Name,
			"description":     exercise.Description,
			"category":        exercise.Category,
			"difficulty":      exercise.Difficulty,
			"durationSeconds": exercise.DurationSeconds,
			"ageGroup":        exercise.AgeGroup,
			"instructions":    exercise.Instructions,
			"benefits":        exercise.Benefits,
			"equipmentNeeded": exercise.EquipmentNeeded,
			"videoUrl":        exercise.VideoURL,
			"imageUrl":        exercise.ImageURL,
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
	exercise.UpdatedAt = now
	return nil
}

// Deactivate soft-deletes an exercise, ensuring it belongs to createdBy.
func (r *mongoExerciseRepository) Deactivate(ctx context.Context, id primitive.ObjectID, createdBy string) error {
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

func (r *mongoExerciseRepository) SetMedia(ctx context.Context, id primitive.ObjectID, kind domain.MediaKind, objectKey string) error {
	var field string
	switch kind {
	case domain.MediaVideo:
		field = "videoObjectKey"
	case domain.MediaImage:
		field = "imageObjectKey"
	default:
		return repository.ErrUpdateFailed
	}

	filter := bson.M{"_id": id, "isActive": true}
	update := bson.M{"$set": bson.M{field: objectKey, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoExerciseRepository) CountActive(ctx context.Context, ids []primitive.ObjectID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	unique := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": unique}, "isActive": true})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "createdBy", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "ageGroup", Value: 1}, {Key: "isActive", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("exercise_text_search"),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
