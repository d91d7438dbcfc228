package mongo

import (
	"errors"

	"jumpingkids/backend/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	writeConflictCode         = 112
	transientTransactionLabel = "TransientTransactionError"
)

// mapError translates driver errors into repository errors. Anything it
// does not recognise is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	if isConflict(err) {
		return repository.ErrConflict
	}
	return err
}

func isConflict(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel(transientTransactionLabel) || se.HasErrorCode(writeConflictCode)
	}
	return false
}
