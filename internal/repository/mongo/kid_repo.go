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

const kidCollectionName = "kids"

type mongoKidRepository struct {
	collection *mongo.Collection
}

func NewMongoKidRepository(db *mongo.Database) repository.KidRepository {
	return &mongoKidRepository{
		collection: db.Collection(kidCollectionName),
	}
}

func (r *mongoKidRepository) Create(ctx context.Context, kid *domain.Kid) (primitive.ObjectID, error) {
	kid.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	kid.CreatedAt = now
	kid.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, kid); err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return kid.ID, nil
}

// GetOwned is the find_owned lookup: active and owned by userID, or ErrNotFound.
func (r *mongoKidRepository) GetOwned(ctx context.Context, kidID, userID primitive.ObjectID) (*domain.Kid, error) {
	var kid domain.Kid
	filter := bson.M{"_id": kidID, "userId": userID, "isActive": true}

	if err := r.collection.FindOne(ctx, filter).Decode(&kid); err != nil {
		return nil, mapError(err)
	}
	return &kid, nil
}

func (r *mongoKidRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Kid, error) {
	filter := bson.M{"userId": userID, "isActive": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	kids := []domain.Kid{}
	if err = cursor.All(ctx, &kids); err != nil {
		return nil, err
	}
	return kids, nil
}

// Update writes the profile fields only; stats are never touched here.
func (r *mongoKidRepository) Update(ctx context.Context, kid *domain.Kid) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": kid.ID, "userId": kid.UserID, "isActive": true}
	update := bson.M{
		"$set": bson.M{
			"name":        kid.Name,
			"age":         kid.Age,
			"avatar":      kid.Avatar,
			"birthDate":   kid.BirthDate,
			"preferences": kid.Preferences,
			"updatedAt":   now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	kid.UpdatedAt = now
	return nil
}

func (r *mongoKidRepository) Deactivate(ctx context.Context, kidID, userID primitive.ObjectID) error {
	filter := bson.M{"_id": kidID, "userId": userID, "isActive": true}
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

func (r *mongoKidRepository) GetStats(ctx context.Context, kidID primitive.ObjectID) (*domain.KidStats, error) {
	var doc struct {
		Stats domain.KidStats `bson:"stats"`
	}
	filter := bson.M{"_id": kidID, "isActive": true}
	opts := options.FindOne().SetProjection(bson.M{"stats": 1})

	if err := r.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, mapError(err)
	}
	return &doc.Stats, nil
}

func (r *mongoKidRepository) SaveStats(ctx context.Context, kidID primitive.ObjectID, stats domain.KidStats) error {
	filter := bson.M{"_id": kidID, "isActive": true}
	update := bson.M{"$set": bson.M{"stats": stats, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func incField(path string, by interface{}) bson.D {
	return bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{path, 0}}}, by}}}
}

// IncrementSessionStats applies a session completion in one pipeline update.
// Every expression in the $set stage reads the pre-update document, so
// longestStreak compares against the incremented current streak.
func (r *mongoKidRepository) IncrementSessionStats(ctx context.Context, kidID primitive.ObjectID, minutes int, at time.Time) (*domain.KidStats, error) {
	filter := bson.M{"_id": kidID}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stats.totalRoutines", Value: incField("$stats.totalRoutines", 1)},
			{Key: "stats.thisWeekCompleted", Value: incField("$stats.thisWeekCompleted", 1)},
			// Unconditional +1 per completion; calendar-day streaks are not implemented.
			{Key: "stats.currentStreak", Value: incField("$stats.currentStreak", 1)},
			{Key: "stats.longestStreak", Value: bson.D{{Key: "$max", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$stats.longestStreak", 0}}},
				incField("$stats.currentStreak", 1),
			}}}},
			{Key: "stats.totalMinutes", Value: incField("$stats.totalMinutes", minutes)},
			{Key: "stats.lastActivity", Value: at},
			{Key: "updatedAt", Value: at},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"stats": 1})

	var doc struct {
		Stats domain.KidStats `bson:"stats"`
	}
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, mapError(err)
	}
	return &doc.Stats, nil
}

func EnsureKidIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isActive", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
