// Package taskquery filters, sorts, and paginates task collections. It is pure:
// inputs are never mutated and results depend only on the arguments, so the
// API server and the client-side store produce identical views.
package taskquery

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// All disables a status or priority filter.
const All = "all"

// DefaultPageSize is used when a query asks for a page size below one.
const DefaultPageSize = 9

// SortKey names the field tasks are ordered by.
type SortKey string

// Sortable fields
const (
	SortByCreatedAt SortKey = "createdAt"
	SortByDueDate   SortKey = "dueDate"
	SortByPriority  SortKey = "priority"
	SortByTitle     SortKey = "title"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortByCreatedAt, SortByDueDate, SortByPriority, SortByTitle:
		return true
	}
	return false
}

// SortOrder is ascending or descending.
type SortOrder string

// Sort directions
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Valid reports whether o is a known direction.
func (o SortOrder) Valid() bool {
	return o == Asc || o == Desc
}

// Filter selects tasks. Empty fields and All match everything.
type Filter struct {
	Search   string
	Status   string
	Priority string
}

// Sort orders tasks. The zero value sorts by creation time, ascending.
type Sort struct {
	By    SortKey
	Order SortOrder
}

// Query combines filter, sort, and page selection.
type Query struct {
	Filter   Filter
	Sort     Sort
	Page     int
	PageSize int
}

// Page is one slice of a filtered, sorted collection.
type Page struct {
	Items      []domain.Task
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// Matches reports whether task satisfies all three predicates.
func (f Filter) Matches(task domain.Task) bool {
	if f.Status != "" && f.Status != All && string(task.Status) != f.Status {
		return false
	}
	if f.Priority != "" && f.Priority != All && string(task.Priority) != f.Priority {
		return false
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		if !strings.Contains(strings.ToLower(task.Title), strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// FilterTasks returns the tasks matching f, in input order.
func FilterTasks(tasks []domain.Task, f Filter) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if f.Matches(task) {
			out = append(out, task)
		}
	}
	return out
}

// SortTasks returns a sorted copy of tasks.
//
// Ascending order is stable: equal keys keep their input order. Descending
// order is the exact reverse of the ascending result. Tasks without a due date
// sort after every dated task when ascending by due date.
func SortTasks(tasks []domain.Task, s Sort) []domain.Task {
	out := slices.Clone(tasks)
	if out == nil {
		out = []domain.Task{}
	}

	slices.SortStableFunc(out, comparator(s.By))
	if s.Order == Desc {
		slices.Reverse(out)
	}
	return out
}

// Paginate slices tasks into the requested page, clamping out-of-range input:
// size < 1 uses DefaultPageSize, page < 1 becomes 1, and a page past the end
// becomes the last page. An empty collection yields page 1 with no items and
// zero total pages.
func Paginate(tasks []domain.Task, page, size int) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	total := len(tasks)
	totalPages := (total + size - 1) / size

	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	if totalPages == 0 {
		page = 1
	}

	start := min((page-1)*size, total)
	end := min(start+size, total)

	return Page{
		Items:      slices.Clone(tasks[start:end]),
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && totalPages > 0,
	}
}

// Apply runs filter, sort, and pagination in that order.
func Apply(tasks []domain.Task, q Query) Page {
	return Paginate(SortTasks(FilterTasks(tasks, q.Filter), q.Sort), q.Page, q.PageSize)
}

func comparator(key SortKey) func(a, b domain.Task) int {
	switch key {
	case SortByTitle:
		// Collators keep internal buffers, so each sort gets its own.
		c := collate.New(language.English, collate.IgnoreCase)
		return func(a, b domain.Task) int {
			return c.CompareString(a.Title, b.Title)
		}
	case SortByPriority:
		return func(a, b domain.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		}
	case SortByDueDate:
		return compareDueDates
	default:
		return func(a, b domain.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
}

func compareDueDates(a, b domain.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}
