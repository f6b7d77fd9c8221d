package mongo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/phrazzld/taskflow-api/internal/store"
)

// MapError translates driver errors into the store error taxonomy.
// notFound and duplicate replace store.ErrNotFound and store.ErrDuplicate
// when non-nil.
func MapError(err error, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		if notFound == nil {
			notFound = store.ErrNotFound
		}
		return fmt.Errorf("%w: %w", notFound, err)
	case mongo.IsDuplicateKeyError(err):
		if duplicate == nil {
			duplicate = store.ErrDuplicate
		}
		return fmt.Errorf("%w: %w", duplicate, err)
	}
	return err
}
