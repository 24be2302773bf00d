package domain

import "time"

// Priority is shared by tasks, reminders and insights.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// GoalCategory groups goals and tasks by life area.
type GoalCategory string

const (
	CategoryHealth        GoalCategory = "health"
	CategoryFinance       GoalCategory = "finance"
	CategoryCareer        GoalCategory = "career"
	CategoryRelationships GoalCategory = "relationships"
	CategoryPersonal      GoalCategory = "personal"
	CategoryLearning      GoalCategory = "learning"
	CategoryHome          GoalCategory = "home"
	CategoryWellness      GoalCategory = "wellness"
)

// DomainType is a tracked life area holding domain items.
type DomainType string

const (
	DomainHealth        DomainType = "health"
	DomainFinance       DomainType = "finance"
	DomainHome          DomainType = "home"
	DomainAuto          DomainType = "auto"
	DomainRelationships DomainType = "relationships"
	DomainCareer        DomainType = "career"
	DomainWellness      DomainType = "wellness"
	DomainPets          DomainType = "pets"
)

// Valid reports whether t is a known domain type.
func (t DomainType) Valid() bool {
	switch t {
	case DomainHealth, DomainFinance, DomainHome, DomainAuto,
		DomainRelationships, DomainCareer, DomainWellness, DomainPets:
		return true
	}
	return false
}

// Frequency of a recurring pattern.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyCustom  Frequency = "custom"
)

// RecurringPattern describes how often a reminder or habit repeats.
type RecurringPattern struct {
	Frequency  Frequency  `json:"frequency" bson:"frequency" validate:"omitempty,oneof=daily weekly monthly yearly custom"`
	Interval   int        `json:"interval" bson:"interval" validate:"gte=0"`
	EndDate    *time.Time `json:"endDate,omitempty" bson:"end_date,omitempty"`
	DaysOfWeek []int      `json:"daysOfWeek,omitempty" bson:"days_of_week,omitempty" validate:"dive,gte=0,lte=6"`
	DayOfMonth *int       `json:"dayOfMonth,omitempty" bson:"day_of_month,omitempty"`
}

// Milestone is a checkpoint inside a goal.
type Milestone struct {
	ID          string     `json:"id" bson:"id"`
	Title       string     `json:"title" bson:"title"`
	IsCompleted bool       `json:"isCompleted" bson:"is_completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
}

type Goal struct {
	ID          string       `json:"id" bson:"_id"`
	UserID      string       `json:"userId" bson:"user_id"`
	Title       string       `json:"title" bson:"title" validate:"required"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	Category    GoalCategory `json:"category" bson:"category"`
	TargetDate  *time.Time   `json:"targetDate,omitempty" bson:"target_date,omitempty"`
	Progress    int          `json:"progress" bson:"progress" validate:"gte=0,lte=100"`
	Milestones  []Milestone  `json:"milestones" bson:"milestones"`
	IsCompleted bool         `json:"isCompleted" bson:"is_completed"`
	IsPinned    bool         `json:"isPinned" bson:"is_pinned"`
	CreatedAt   time.Time    `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updated_at"`
}

type Task struct {
	ID          string       `json:"id" bson:"_id"`
	UserID      string       `json:"userId" bson:"user_id"`
	Title       string       `json:"title" bson:"title" validate:"required"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	IsCompleted bool         `json:"isCompleted" bson:"is_completed"`
	CompletedAt *time.Time   `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
	DueDate     *time.Time   `json:"dueDate,omitempty" bson:"due_date,omitempty"`
	Priority    Priority     `json:"priority" bson:"priority"`
	Category    GoalCategory `json:"category,omitempty" bson:"category,omitempty"`
	GoalID      string       `json:"goalId,omitempty" bson:"goal_id,omitempty"`
	CreatedAt   time.Time    `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updated_at"`
}

// Reminder carries only createdAt; edits are not timestamped.
type Reminder struct {
	ID           string            `json:"id" bson:"_id"`
	UserID       string            `json:"userId" bson:"user_id"`
	Title        string            `json:"title" bson:"title" validate:"required"`
	Description  string            `json:"description,omitempty" bson:"description,omitempty"`
	DueDate      time.Time         `json:"dueDate" bson:"due_date"`
	ReminderDate *time.Time        `json:"reminderDate,omitempty" bson:"reminder_date,omitempty"`
	IsCompleted  bool              `json:"isCompleted" bson:"is_completed"`
	Recurring    *RecurringPattern `json:"recurring,omitempty" bson:"recurring,omitempty"`
	DomainID     string            `json:"domainId,omitempty" bson:"domain_id,omitempty"`
	DomainItemID string            `json:"domainItemId,omitempty" bson:"domain_item_id,omitempty"`
	Priority     Priority          `json:"priority" bson:"priority"`
	CreatedAt    time.Time         `json:"createdAt" bson:"created_at"`
}

// Mood recorded on a journal entry.
type Mood string

const (
	MoodGreat Mood = "great"
	MoodGood  Mood = "good"
	MoodOkay  Mood = "okay"
	MoodLow   Mood = "low"
	MoodBad   Mood = "bad"
)

type JournalEntry struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"user_id"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	Date      time.Time `json:"date" bson:"date"`
	Content   string    `json:"content" bson:"content" validate:"required"`
	Mood      Mood      `json:"mood,omitempty" bson:"mood,omitempty"`
	Tags      []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	Gratitude []string  `json:"gratitude,omitempty" bson:"gratitude,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// Habit tracks repeated completions. CompletedDates holds at most one
// "2006-01-02" key per calendar day, sorted ascending.
type Habit struct {
	ID             string           `json:"id" bson:"_id"`
	UserID         string           `json:"userId" bson:"user_id"`
	Title          string           `json:"title" bson:"title" validate:"required"`
	Description    string           `json:"description,omitempty" bson:"description,omitempty"`
	Frequency      RecurringPattern `json:"frequency" bson:"frequency"`
	Streak         int              `json:"streak" bson:"streak" validate:"gte=0"`
	LongestStreak  int              `json:"longestStreak" bson:"longest_streak" validate:"gte=0"`
	CompletedDates []string         `json:"completedDates" bson:"completed_dates"`
	Category       GoalCategory     `json:"category,omitempty" bson:"category,omitempty"`
	IsActive       bool             `json:"isActive" bson:"is_active"`
	CreatedAt      time.Time        `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt" bson:"updated_at"`
}

// HasCompleted reports whether dateKey is already recorded.
func (h *Habit) HasCompleted(dateKey string) bool {
	for _, d := range h.CompletedDates {
		if d == dateKey {
			return true
		}
	}
	return false
}

// DomainItem is one unit of content inside a life domain.
type DomainItem struct {
	ID          string         `json:"id" bson:"id"`
	Type        string         `json:"type" bson:"type"`
	Title       string         `json:"title" bson:"title" validate:"required"`
	Description string         `json:"description,omitempty" bson:"description,omitempty"`
	Date        *time.Time     `json:"date,omitempty" bson:"date,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updated_at"`
}

// Domain groups the items of one DomainType. It is created implicitly by
// the first item added for its type.
type Domain struct {
	ID          string       `json:"id" bson:"_id"`
	UserID      string       `json:"userId" bson:"user_id"`
	Type        DomainType   `json:"type" bson:"type"`
	Items       []DomainItem `json:"items" bson:"items"`
	LastUpdated time.Time    `json:"lastUpdated" bson:"last_updated"`
}

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// InsightType classifies assistant-generated insights.
type InsightType string

const (
	InsightSuggestion InsightType = "suggestion"
	InsightReminder   InsightType = "reminder"
	InsightMotivation InsightType = "motivation"
	InsightInsight    InsightType = "insight"
)

type Insight struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Type        InsightType `json:"type"`
	Content     string      `json:"content" validate:"required"`
	Domain      DomainType  `json:"domain,omitempty"`
	Priority    Priority    `json:"priority"`
	CreatedAt   time.Time   `json:"createdAt"`
	IsRead      bool        `json:"isRead"`
	IsDismissed bool        `json:"isDismissed"`
}
