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

const trainingSessionCollectionName = "training_sessions"

type mongoTrainingSessionRepository struct {
	collection *mongo.Collection
}

func NewMongoTrainingSessionRepository(db *mongo.Database) repository.TrainingSessionRepository {
	return &mongoTrainingSessionRepository{
		collection: db.Collection(trainingSessionCollectionName),
	}
}

func (r *mongoTrainingSessionRepository) Create(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.UpdatedAt = session.CreatedAt

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return session.ID, nil
}

func (r *mongoTrainingSessionRepository) GetOwned(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.TrainingSession, error) {
	var session domain.TrainingSession
	if err := r.collection.FindOne(ctx, bson.M{"_id": sessionID, "userId": userID}).Decode(&session); err != nil {
		return nil, mapError(err)
	}
	return &session, nil
}

// AdvanceExercise is a single-document conditional update, so concurrent
// calls on one session serialize in the server and never lose an increment.
func (r *mongoTrainingSessionRepository) AdvanceExercise(ctx context.Context, sessionID, userID primitive.ObjectID, at time.Time) (*domain.TrainingSession, error) {
	filter := bson.M{
		"_id":    sessionID,
		"userId": userID,
		"status": domain.SessionInProgress,
		"$expr":  bson.M{"$lt": bson.A{"$exercisesCompleted", "$totalExercises"}},
	}
	reachedTotal := bson.M{"$gte": bson.A{"$exercisesCompleted", "$totalExercises"}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"exercisesCompleted":   bson.M{"$add": bson.A{"$exercisesCompleted", 1}},
			"currentExerciseIndex": bson.M{"$add": bson.A{"$currentExerciseIndex", 1}},
			"updatedAt":            at,
		}}},
		{{Key: "$set", Value: bson.M{
			"status":      bson.M{"$cond": bson.A{reachedTotal, domain.SessionCompleted, "$status"}},
			"completedAt": bson.M{"$cond": bson.A{reachedTotal, at, "$completedAt"}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session domain.TrainingSession
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session); err != nil {
		return nil, mapError(err)
	}
	return &session, nil
}

func (r *mongoTrainingSessionRepository) Finalize(ctx context.Context, sessionID, userID primitive.ObjectID, in domain.SessionCompletion, at time.Time) (*domain.TrainingSession, error) {
	filter := bson.M{
		"_id":       sessionID,
		"userId":    userID,
		"finalized": bson.M{"$ne": true},
		"status":    bson.M{"$ne": domain.SessionAbandoned},
	}

	var notes interface{} = "$$REMOVE"
	if in.Notes != nil {
		notes = bson.M{"$literal": *in.Notes}
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status":             domain.SessionCompleted,
			"completedAt":        at,
			"exercisesCompleted": bson.M{"$min": bson.A{in.ExercisesCompleted, "$totalExercises"}},
			"totalTimeMinutes":   in.TotalTimeMinutes,
			"overallRating":      in.OverallRating,
			"notes":              notes,
			"finalized":          true,
			"updatedAt":          at,
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session domain.TrainingSession
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session); err != nil {
		return nil, mapError(err)
	}
	return &session, nil
}

func EnsureTrainingSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startedAt", Value: -1}}},
		{Keys: bson.D{{Key: "kidId", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys:    bson.D{{Key: "assignmentId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
