package mongo

import (
	"context"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const mediaUploadCollectionName = "media_uploads"

// mongoMediaUploadRepository implements repository.MediaUploadRepository
type mongoMediaUploadRepository struct {
	collection *mongo.Collection
}

func NewMongoMediaUploadRepository(db *mongo.Database) repository.MediaUploadRepository {
	return &mongoMediaUploadRepository{
		collection: db.Collection(mediaUploadCollectionName),
	}
}

func (r *mongoMediaUploadRepository) Create(ctx context.Context, upload *domain.MediaUpload) (primitive.ObjectID, error) {
	upload.ID = primitive.NewObjectID()
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, upload); err != nil {
		return primitive.NilObjectID, mapError(err)
	}
	return upload.ID, nil
}

func (r *mongoMediaUploadRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MediaUpload, error) {
	var upload domain.MediaUpload
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&upload); err != nil {
		return nil, mapError(err)
	}
	return &upload, nil
}

func EnsureMediaUploadIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "exerciseId", Value: 1}, {Key: "uploadedAt", Value: -1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
