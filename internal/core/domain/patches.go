package domain

import "time"

// Patches carry partial updates; nil fields are left untouched.

type GoalPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Category    *GoalCategory `json:"category,omitempty"`
	TargetDate  *time.Time    `json:"targetDate,omitempty"`
	Progress    *int          `json:"progress,omitempty" validate:"omitempty,gte=0,lte=100"`
	Milestones  []Milestone   `json:"milestones,omitempty"`
	IsCompleted *bool         `json:"isCompleted,omitempty"`
	IsPinned    *bool         `json:"isPinned,omitempty"`
}

func (p GoalPatch) Apply(g *Goal) {
	setIf(&g.Title, p.Title)
	setIf(&g.Description, p.Description)
	setIf(&g.Category, p.Category)
	if p.TargetDate != nil {
		t := *p.TargetDate
		g.TargetDate = &t
	}
	setIf(&g.Progress, p.Progress)
	if p.Milestones != nil {
		g.Milestones = append([]Milestone(nil), p.Milestones...)
	}
	setIf(&g.IsCompleted, p.IsCompleted)
	setIf(&g.IsPinned, p.IsPinned)
}

// TaskPatch cannot change completion; use the toggle so completedAt stays
// consistent with isCompleted.
type TaskPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
	Priority    *Priority     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Category    *GoalCategory `json:"category,omitempty"`
	GoalID      *string       `json:"goalId,omitempty"`
}

func (p TaskPatch) Apply(t *Task) {
	setIf(&t.Title, p.Title)
	setIf(&t.Description, p.Description)
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	setIf(&t.Priority, p.Priority)
	setIf(&t.Category, p.Category)
	setIf(&t.GoalID, p.GoalID)
}

type ReminderPatch struct {
	Title        *string           `json:"title,omitempty"`
	Description  *string           `json:"description,omitempty"`
	DueDate      *time.Time        `json:"dueDate,omitempty"`
	ReminderDate *time.Time        `json:"reminderDate,omitempty"`
	IsCompleted  *bool             `json:"isCompleted,omitempty"`
	Recurring    *RecurringPattern `json:"recurring,omitempty"`
	Priority     *Priority         `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

func (p ReminderPatch) Apply(r *Reminder) {
	setIf(&r.Title, p.Title)
	setIf(&r.Description, p.Description)
	setIf(&r.DueDate, p.DueDate)
	if p.ReminderDate != nil {
		d := *p.ReminderDate
		r.ReminderDate = &d
	}
	setIf(&r.IsCompleted, p.IsCompleted)
	if p.Recurring != nil {
		rec := *p.Recurring
		r.Recurring = &rec
	}
	setIf(&r.Priority, p.Priority)
}

type JournalPatch struct {
	Title     *string    `json:"title,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	Content   *string    `json:"content,omitempty"`
	Mood      *Mood      `json:"mood,omitempty" validate:"omitempty,oneof=great good okay low bad"`
	Tags      []string   `json:"tags,omitempty"`
	Gratitude []string   `json:"gratitude,omitempty"`
}

func (p JournalPatch) Apply(j *JournalEntry) {
	setIf(&j.Title, p.Title)
	setIf(&j.Date, p.Date)
	setIf(&j.Content, p.Content)
	setIf(&j.Mood, p.Mood)
	if p.Tags != nil {
		j.Tags = append([]string(nil), p.Tags...)
	}
	if p.Gratitude != nil {
		j.Gratitude = append([]string(nil), p.Gratitude...)
	}
}

// HabitPatch cannot touch streaks or completed dates.
type HabitPatch struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Frequency   *RecurringPattern `json:"frequency,omitempty"`
	Category    *GoalCategory     `json:"category,omitempty"`
	IsActive    *bool             `json:"isActive,omitempty"`
}

func (p HabitPatch) Apply(h *Habit) {
	setIf(&h.Title, p.Title)
	setIf(&h.Description, p.Description)
	setIf(&h.Frequency, p.Frequency)
	setIf(&h.Category, p.Category)
	setIf(&h.IsActive, p.IsActive)
}

type DomainItemPatch struct {
	Type        *string        `json:"type,omitempty"`
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Date        *time.Time     `json:"date,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (p DomainItemPatch) Apply(it *DomainItem) {
	setIf(&it.Type, p.Type)
	setIf(&it.Title, p.Title)
	setIf(&it.Description, p.Description)
	if p.Date != nil {
		d := *p.Date
		it.Date = &d
	}
	if p.Metadata != nil {
		it.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			it.Metadata[k] = v
		}
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
