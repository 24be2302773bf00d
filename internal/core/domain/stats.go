package domain

// UpcomingReminderLimit caps DashboardStats.UpcomingReminders.
const UpcomingReminderLimit = 5

// DashboardStats is a projection of Collections at one instant. It is never
// stored.
type DashboardStats struct {
	YearProgress        int        `json:"yearProgress"`
	DaysInYear          int        `json:"daysInYear"`
	DaysElapsed         int        `json:"daysElapsed"`
	DaysRemaining       int        `json:"daysRemaining"`
	GoalsCompleted      int        `json:"goalsCompleted"`
	GoalsTotal          int        `json:"goalsTotal"`
	HabitsStreak        int        `json:"habitsStreak"`
	TasksCompletedToday int        `json:"tasksCompletedToday"`
	TasksDueToday       int        `json:"tasksDueToday"`
	UpcomingReminders   []Reminder `json:"upcomingReminders"`
}

// AssistantContext is the optional context handed to the AI assistant next
// to the user's prompt.
type AssistantContext struct {
	Stats             *DashboardStats `json:"stats,omitempty"`
	RecentGoals       []Goal          `json:"recentGoals,omitempty"`
	RecentTasks       []Task          `json:"recentTasks,omitempty"`
	UpcomingReminders []Reminder      `json:"upcomingReminders,omitempty"`
	Habits            []Habit         `json:"habits,omitempty"`
}
