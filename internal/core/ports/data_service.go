package ports

import (
	"context"
	"time"

	"github.com/midnightlabs/midnight/internal/core/domain"
)

// DataService is the DataStore surface used by the transport layer.
type DataService interface {
	Snapshot() domain.Collections
	Stats(now time.Time) domain.DashboardStats

	AddGoal(g domain.Goal) (domain.Goal, error)
	UpdateGoal(id string, p domain.GoalPatch) (domain.Goal, error)
	DeleteGoal(id string) error

	AddTask(t domain.Task) (domain.Task, error)
	UpdateTask(id string, p domain.TaskPatch) (domain.Task, error)
	DeleteTask(id string) error
	ToggleTask(id string) (domain.Task, error)

	AddReminder(r domain.Reminder) (domain.Reminder, error)
	UpdateReminder(id string, p domain.ReminderPatch) (domain.Reminder, error)
	DeleteReminder(id string) error
	CompleteReminder(id string) (domain.Reminder, error)

	AddJournalEntry(j domain.JournalEntry) (domain.JournalEntry, error)
	UpdateJournalEntry(id string, p domain.JournalPatch) (domain.JournalEntry, error)
	DeleteJournalEntry(id string) error

	AddHabit(h domain.Habit) (domain.Habit, error)
	UpdateHabit(id string, p domain.HabitPatch) (domain.Habit, error)
	DeleteHabit(id string) error
	CompleteHabitToday(id string) (domain.Habit, error)

	AddDomainItem(t domain.DomainType, it domain.DomainItem) (domain.DomainItem, error)
	UpdateDomainItem(t domain.DomainType, id string, p domain.DomainItemPatch) (domain.DomainItem, error)
	DeleteDomainItem(t domain.DomainType, id string) error

	AddInsight(in domain.Insight) (domain.Insight, error)
	MarkInsightRead(id string) error
	DismissInsight(id string) error
}

// AssistantService runs one chat turn against the AI collaborator.
type AssistantService interface {
	Chat(ctx context.Context, prompt string) (domain.ChatMessage, error)
	History() []domain.ChatMessage
	ClearHistory() error
}
