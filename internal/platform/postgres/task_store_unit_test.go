package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

func TestBuildTaskWhere(t *testing.T) {
	t.Parallel()
	owner := uuid.New()

	t.Run("owner only", func(t *testing.T) {
		where, args := buildTaskWhere(owner, store.TaskFilter{})
		assert.Equal(t, "owner_id = $1", where)
		assert.Equal(t, []any{owner}, args)
	})

	t.Run("every predicate numbered in order", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		before := from.AddDate(0, 0, 7)
		where, args := buildTaskWhere(owner, store.TaskFilter{
			Statuses:    []domain.Status{domain.StatusPending, domain.StatusInProgress},
			Priority:    domain.PriorityHigh,
			Search:      " 50%_off ",
			DueFrom:     &from,
			DueBefore:   &before,
			CreatedFrom: &from,
			UpdatedFrom: &from,
			Limit:       10,
		})

		assert.Equal(t,
			"owner_id = $1 AND status = ANY($2) AND priority = $3 AND title ILIKE $4 ESCAPE '\\' "+
				"AND due_date >= $5 AND due_date < $6 AND created_at >= $7 AND updated_at >= $8",
			where)
		assert.Len(t, args, 8)
		assert.Equal(t, []string{"pending", "in-progress"}, args[1])
		assert.Equal(t, "high", args[2])
		assert.Equal(t, `%50\%\_off%`, args[3])
		assert.Equal(t, before, args[5])
	})

	t.Run("blank search is ignored", func(t *testing.T) {
		where, _ := buildTaskWhere(owner, store.TaskFilter{Search: "   "})
		assert.Equal(t, "owner_id = $1", where)
	})
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain", escapeLike("plain"))
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
}

func TestNewStoresRejectNilDB(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewPostgresTaskStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresUserStore(nil, 10, nil) })
	assert.Panics(t, func() { NewTransactor(nil, 10, nil) })
}

func TestMigrationsAreEmbedded(t *testing.T) {
	t.Parallel()
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_tasks.sql"}, names)
}
