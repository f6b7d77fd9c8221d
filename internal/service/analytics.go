package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

var openStatuses = []domain.Status{domain.StatusPending, domain.StatusInProgress}

// computeAnalytics runs every count and listing concurrently. A task counts
// as completed in a period when its status is completed and it was last
// updated inside the period.
func computeAnalytics(
	ctx context.Context,
	tasks store.TaskStore,
	ownerID uuid.UUID,
	now time.Time,
) (*domain.ProfileAnalytics, error) {
	now = now.UTC()
	weekStart := domain.StartOfWeek(now)
	monthStart := domain.StartOfMonth(now)
	trendStart := domain.StartOfDay(now).AddDate(0, 0, -(domain.ProductivityTrendDays - 1))
	dueSoonEnd := now.Add(domain.DueSoonWindow)
	completed := []domain.Status{domain.StatusCompleted}

	var (
		a         domain.ProfileAnalytics
		dueSoon   []domain.Task
		recent    []domain.Task
		completes []domain.Task
	)

	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int, f store.TaskFilter) {
		g.Go(func() error {
			n, err := tasks.Count(ctx, ownerID, f)
			*dst = n
			return err
		})
	}
	list := func(dst *[]domain.Task, f store.TaskFilter) {
		g.Go(func() error {
			found, err := tasks.List(ctx, ownerID, f)
			*dst = found
			return err
		})
	}

	count(&a.TotalTasks, store.TaskFilter{})
	count(&a.CompletedTasks, store.TaskFilter{Statuses: completed})
	count(&a.PendingTasks, store.TaskFilter{Statuses: []domain.Status{domain.StatusPending}})
	count(&a.InProgressTasks, store.TaskFilter{Statuses: []domain.Status{domain.StatusInProgress}})
	count(&a.OverdueTasks, store.TaskFilter{Statuses: openStatuses, DueBefore: &now})
	count(&a.TasksByPriority.Low, store.TaskFilter{Priority: domain.PriorityLow})
	count(&a.TasksByPriority.Medium, store.TaskFilter{Priority: domain.PriorityMedium})
	count(&a.TasksByPriority.High, store.TaskFilter{Priority: domain.PriorityHigh})
	count(&a.ThisWeek.Created, store.TaskFilter{CreatedFrom: &weekStart})
	count(&a.ThisWeek.Completed, store.TaskFilter{Statuses: completed, UpdatedFrom: &weekStart})
	count(&a.ThisMonth.Created, store.TaskFilter{CreatedFrom: &monthStart})
	count(&a.ThisMonth.Completed, store.TaskFilter{Statuses: completed, UpdatedFrom: &monthStart})
	list(&dueSoon, store.TaskFilter{Statuses: openStatuses, DueFrom: &now, DueBefore: &dueSoonEnd})
	list(&recent, store.TaskFilter{Limit: domain.RecentTasksLimit})
	list(&completes, store.TaskFilter{Statuses: completed, UpdatedFrom: &trendStart})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.SuccessRate = domain.SuccessRate(a.CompletedTasks, a.TotalTasks)
	a.TasksDueSoon = taskquery.SortTasks(dueSoon, taskquery.Sort{By: taskquery.SortByDueDate, Order: taskquery.Asc})
	a.RecentTasks = recent
	if a.RecentTasks == nil {
		a.RecentTasks = []domain.Task{}
	}

	completedAt := make([]time.Time, len(completes))
	for i, t := range completes {
		completedAt[i] = t.UpdatedAt
	}
	a.ProductivityTrend = domain.BuildProductivityTrend(completedAt, now, domain.ProductivityTrendDays)

	return &a, nil
}
