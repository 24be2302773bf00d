package service

import (
	"math"
	"sort"
	"time"

	"github.com/midnightlabs/midnight/internal/core/domain"
)

const assistantRecentLimit = 5

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// ComputeStats projects the dashboard figures at now. Calendar days are
// evaluated in now's location. DaysElapsed is the 1-based day of year, so
// January 1st counts one day elapsed and still rounds to 0%.
func ComputeStats(c domain.Collections, now time.Time) domain.DashboardStats {
	daysInYear := 365
	if isLeap(now.Year()) {
		daysInYear = 366
	}
	elapsed := now.YearDay()

	s := domain.DashboardStats{
		YearProgress:      int(math.Round(float64(elapsed) / float64(daysInYear) * 100)),
		DaysInYear:        daysInYear,
		DaysElapsed:       elapsed,
		DaysRemaining:     daysInYear - elapsed,
		GoalsTotal:        len(c.Goals),
		UpcomingReminders: []domain.Reminder{},
	}

	for _, g := range c.Goals {
		if g.IsCompleted {
			s.GoalsCompleted++
		}
	}
	for _, h := range c.Habits {
		s.HabitsStreak += h.Streak
	}
	for _, t := range c.Tasks {
		if t.IsCompleted && t.CompletedAt != nil && sameDay(t.CompletedAt.In(now.Location()), now) {
			s.TasksCompletedToday++
		}
		if !t.IsCompleted && t.DueDate != nil && sameDay(t.DueDate.In(now.Location()), now) {
			s.TasksDueToday++
		}
	}

	for _, r := range c.Reminders {
		if !r.IsCompleted && !r.DueDate.Before(now) {
			s.UpcomingReminders = append(s.UpcomingReminders, r)
		}
	}
	sort.SliceStable(s.UpcomingReminders, func(i, j int) bool {
		return s.UpcomingReminders[i].DueDate.Before(s.UpcomingReminders[j].DueDate)
	})
	if len(s.UpcomingReminders) > domain.UpcomingReminderLimit {
		s.UpcomingReminders = s.UpcomingReminders[:domain.UpcomingReminderLimit]
	}
	return s
}

// BuildAssistantContext picks the slice of the user's data handed to the
// assistant next to a prompt.
func BuildAssistantContext(c domain.Collections, stats *domain.DashboardStats) *domain.AssistantContext {
	actx := &domain.AssistantContext{Stats: stats}
	for _, g := range c.Goals {
		if len(actx.RecentGoals) == assistantRecentLimit {
			break
		}
		if !g.IsCompleted {
			actx.RecentGoals = append(actx.RecentGoals, g)
		}
	}
	for _, t := range c.Tasks {
		if len(actx.RecentTasks) == assistantRecentLimit {
			break
		}
		if !t.IsCompleted {
			actx.RecentTasks = append(actx.RecentTasks, t)
		}
	}
	if stats != nil {
		actx.UpcomingReminders = stats.UpcomingReminders
	}
	for _, h := range c.Habits {
		if h.IsActive {
			actx.Habits = append(actx.Habits, h)
		}
	}
	return actx
}
