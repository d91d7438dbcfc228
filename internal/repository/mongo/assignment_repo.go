package mongo

import (
	"context"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assignmentCollectionName = "assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

func (r *mongoAssignmentRepository) Create(ctx context.Context, a *domain.Assignment) (primitive.ObjectID, error) {
	a.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = domain.AssignmentPending
	}

	if _, err := r.collection.InsertOne(ctx, a); err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return a.ID, nil
}

func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	var a domain.Assignment
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *mongoAssignmentRepository) Find(ctx context.Context, assignmentID, kidID primitive.ObjectID) (*domain.Assignment, error) {
	var a domain.Assignment
	if err := r.collection.FindOne(ctx, bson.M{"_id": assignmentID, "kidId": kidID}).Decode(&a); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *mongoAssignmentRepository) complete(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkCompleted leaves notes as they are.
func (r *mongoAssignmentRepository) MarkCompleted(ctx context.Context, id primitive.ObjectID, minutes, exercises int, at time.Time) error {
	return r.complete(ctx, id, bson.M{
		"status":                domain.AssignmentCompleted,
		"completedAt":           at,
		"completionTimeMinutes": minutes,
		"exercisesCompleted":    exercises,
		"updatedAt":             at,
	})
}

func (r *mongoAssignmentRepository) Complete(ctx context.Context, id primitive.ObjectID, minutes, exercises int, notes string, at time.Time) error {
	return r.complete(ctx, id, bson.M{
		"status":                domain.AssignmentCompleted,
		"completedAt":           at,
		"completionTimeMinutes": minutes,
		"exercisesCompleted":    exercises,
		"notes":                 notes,
		"updatedAt":             at,
	})
}

func (r *mongoAssignmentRepository) ListCompletedSince(ctx context.Context, kidID primitive.ObjectID, since time.Time) ([]domain.Assignment, error) {
	filter := bson.M{
		"kidId":       kidID,
		"status":      domain.AssignmentCompleted,
		"completedAt": bson.M{"$gte": since},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	assignments := []domain.Assignment{}
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// daily view of a kid's assignments
			Keys: bson.D{{Key: "kidId", Value: 1}, {Key: "assignedDate", Value: -1}},
		},
		{
			// weekly progress
			Keys: bson.D{{Key: "kidId", Value: 1}, {Key: "status", Value: 1}, {Key: "completedAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
