package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/store"
)

// Transactor runs store operations inside a single PostgreSQL transaction.
type Transactor struct {
	db         *sql.DB
	bcryptCost int
	logger     *slog.Logger
}

// NewTransactor returns a Transactor whose stores hash passwords with bcryptCost.
func NewTransactor(db *sql.DB, bcryptCost int, logger *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, bcryptCost: bcryptCost, logger: logger}
}

var _ store.Transactor = (*Transactor)(nil)

// WithinTransaction commits when fn returns nil and rolls back otherwise.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	return store.RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, store.Stores{
			Users: NewPostgresUserStore(tx, t.bcryptCost, t.logger),
			Tasks: NewPostgresTaskStore(tx, t.logger),
		})
	})
}
