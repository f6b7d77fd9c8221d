package domain

import (
	"math"
	"time"
)

// Analytics windows
const (
	DueSoonWindow         = 7 * 24 * time.Hour
	RecentTasksLimit      = 10
	ProductivityTrendDays = 30
)

// PeriodCounts counts tasks created and completed inside a period.
type PeriodCounts struct {
	Created   int `json:"created"`
	Completed int `json:"completed"`
}

// PriorityCounts counts tasks per priority.
type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// DailyCount is the number of tasks completed on one calendar day (UTC).
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// ProfileAnalytics aggregates a user's tasks for the profile page.
// It is computed on read and never stored.
type ProfileAnalytics struct {
	TotalTasks        int            `json:"totalTasks"`
	CompletedTasks    int            `json:"completedTasks"`
	PendingTasks      int            `json:"pendingTasks"`
	InProgressTasks   int            `json:"inProgressTasks"`
	OverdueTasks      int            `json:"overdueTasks"`
	SuccessRate       int            `json:"successRate"`
	TasksByPriority   PriorityCounts `json:"tasksByPriority"`
	ThisWeek          PeriodCounts   `json:"thisWeek"`
	ThisMonth         PeriodCounts   `json:"thisMonth"`
	TasksDueSoon      []Task         `json:"tasksDueSoon"`
	RecentTasks       []Task         `json:"recentTasks"`
	ProductivityTrend []DailyCount   `json:"productivityTrend"`
}

// SuccessRate is completed/total as a rounded percentage; zero when total is zero.
func SuccessRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// StartOfWeek returns Sunday 00:00 UTC of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// StartOfMonth returns the first day of t's month at 00:00 UTC.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// StartOfDay truncates t to 00:00 UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildProductivityTrend buckets completion times into one entry per day for
// the days ending on now (inclusive), oldest first. Days without completions
// are present with a zero count.
func BuildProductivityTrend(completedAt []time.Time, now time.Time, days int) []DailyCount {
	if days <= 0 {
		return []DailyCount{}
	}
	first := StartOfDay(now).AddDate(0, 0, -(days - 1))

	trend := make([]DailyCount, days)
	index := make(map[string]int, days)
	for i := range trend {
		date := first.AddDate(0, 0, i).Format(time.DateOnly)
		trend[i] = DailyCount{Date: date}
		index[date] = i
	}

	for _, ts := range completedAt {
		if i, ok := index[ts.UTC().Format(time.DateOnly)]; ok {
			trend[i].Count++
		}
	}
	return trend
}
