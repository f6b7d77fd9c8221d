package mongo

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/phrazzld/taskflow-api/internal/store"
)

// Transactor hands fn stores bound to db. Standalone MongoDB servers have no
// multi-document transactions, so the operations are applied one by one and
// a failure part way through is not rolled back.
type Transactor struct {
	db         *mongo.Database
	bcryptCost int
	logger     *slog.Logger
}

func NewTransactor(db *mongo.Database, bcryptCost int, logger *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, bcryptCost: bcryptCost, logger: logger}
}

var _ store.Transactor = (*Transactor)(nil)

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	return fn(ctx, store.Stores{
		Users: NewUserStore(t.db, t.bcryptCost, t.logger),
		Tasks: NewTaskStore(t.db, t.logger),
	})
}
