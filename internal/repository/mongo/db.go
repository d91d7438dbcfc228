package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI and
// pings the primary before returning the client.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Index errors are
// returned keyed by collection so the caller can log them and keep running.
func EnsureIndexes(ctx context.Context, db *mongo.Database) map[string]error {
	ensure := map[string]func(context.Context, *mongo.Collection) error{
		userCollectionName:            EnsureUserIndexes,
		kidCollectionName:             EnsureKidIndexes,
		exerciseCollectionName:        EnsureExerciseIndexes,
		routineCollectionName:         EnsureRoutineIndexes,
		assignmentCollectionName:      EnsureAssignmentIndexes,
		mediaUploadCollectionName:     EnsureMediaUploadIndexes,
		trainingSessionCollectionName: EnsureTrainingSessionIndexes,
	}

	failed := make(map[string]error)
	for name, fn := range ensure {
		if err := fn(ctx, db.Collection(name)); err != nil {
			failed[name] = err
		}
	}
	return failed
}
