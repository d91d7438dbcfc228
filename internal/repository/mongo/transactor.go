package mongo

import (
	"context"
	"time"

	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Transactor runs repository calls inside a MongoDB multi-document
// transaction. It needs a replica set.
type Transactor struct {
	client *mongo.Client
}

var _ repository.Transactor = (*Transactor)(nil)

func NewTransactor(client *mongo.Client) *Transactor {
	return &Transactor{client: client}
}

// WithinTransaction commits when fn returns nil and aborts otherwise.
// A transient transaction error is reported as repository.ErrConflict and
// is not retried here; retry policy belongs to the caller.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(txnOpts); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			abortCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = sess.AbortTransaction(abortCtx)
			return err
		}
		return sc.CommitTransaction(sc)
	})
	if isConflict(err) {
		return repository.ErrConflict
	}
	return err
}
