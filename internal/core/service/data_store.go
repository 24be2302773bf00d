package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
	"github.com/midnightlabs/midnight/internal/pkg/id"
	"github.com/midnightlabs/midnight/internal/pkg/metrics"
)

// DayKeyLayout formats the calendar day recorded for habit completions.
const DayKeyLayout = "2006-01-02"

// OwnerFunc returns the id of the signed-in user, or "" when nobody is.
type OwnerFunc func() string

type DataStoreOptions struct {
	Clock clock.Clock
	IDs   id.Generator
	// Mirror replicates committed records. Nil disables replication.
	Mirror ports.Mirror
}

type noMirror struct{}

func (noMirror) Put(string, string, any) {}
func (noMirror) Remove(string, string)   {}

// DataStore holds the user's collections in memory and writes the whole
// document through LocalPersistence on every mutation. A mutation becomes
// visible only after the local write succeeded.
type DataStore struct {
	mu     sync.Mutex
	data   domain.Collections
	local  ports.LocalPersistence
	mirror ports.Mirror
	owner  OwnerFunc
	clock  clock.Clock
	ids    id.Generator
	log    zerolog.Logger
}

func NewDataStore(local ports.LocalPersistence, owner OwnerFunc, opts DataStoreOptions, log zerolog.Logger) *DataStore {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.IDs == nil {
		opts.IDs = id.UUID{}
	}
	if opts.Mirror == nil {
		opts.Mirror = noMirror{}
	}
	if owner == nil {
		owner = func() string { return "" }
	}
	return &DataStore{
		local:  local,
		mirror: opts.Mirror,
		owner:  owner,
		clock:  opts.Clock,
		ids:    opts.IDs,
		log:    log,
	}
}

// Init loads the persisted document, if any.
func (d *DataStore) Init() error {
	data, ok, err := d.local.LoadData()
	if err != nil {
		return fmt.Errorf("load local data: %w", err)
	}
	if !ok {
		return nil
	}
	d.mu.Lock()
	d.data = data
	d.mu.Unlock()
	d.log.Debug().
		Int("goals", len(data.Goals)).
		Int("tasks", len(data.Tasks)).
		Int("habits", len(data.Habits)).
		Msg("local data restored")
	return nil
}

// Snapshot returns a copy of every collection.
func (d *DataStore) Snapshot() domain.Collections {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data.Clone()
}

// Stats computes the dashboard projection at now.
func (d *DataStore) Stats(now time.Time) domain.DashboardStats {
	return ComputeStats(d.Snapshot(), now)
}

// commit applies fn to a copy of the collections, persists the copy and
// swaps it in. On any error the in-memory state is left untouched.
func (d *DataStore) commit(kind, op string, fn func(c *domain.Collections) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := d.data.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := d.local.SaveData(next.Persistable()); err != nil {
		d.log.Error().Err(err).Str("kind", kind).Str("op", op).Msg("local write failed")
		return fmt.Errorf("save %s: %w", kind, err)
	}
	d.data = next
	metrics.DataMutationsTotal.WithLabelValues(kind, op).Inc()
	return nil
}

// mirrored reports whether records owned by owner leave the device.
// Unowned and demo records stay local.
func mirrored(owner string) bool {
	return owner != "" && owner != domain.DemoUserID
}

func (d *DataStore) put(collection, id, owner string, record any) {
	if !mirrored(owner) {
		return
	}
	d.mirror.Put(collection, id, record)
}

func (d *DataStore) remove(collection, id string) {
	if !mirrored(d.owner()) {
		return
	}
	d.mirror.Remove(collection, id)
}

func indexByID[T any](items []T, id string, key func(*T) string) int {
	return slices.IndexFunc(items, func(it T) bool { return key(&it) == id })
}

func goalID(g *domain.Goal) string { return g.ID }
func taskID(t *domain.Task) string { return t.ID }
func reminderID(r *domain.Reminder) string { return r.ID }
func journalID(j *domain.JournalEntry) string { return j.ID }
func habitID(h *domain.Habit) string { return h.ID }
func itemID(it *domain.DomainItem) string { return it.ID }
func insightID(in *domain.Insight) string { return in.ID }

// Goals

func validateGoal(g domain.Goal) error {
	if err := requireTitle(g.Title); err != nil {
		return err
	}
	return checkStruct(g)
}

func (d *DataStore) AddGoal(g domain.Goal) (domain.Goal, error) {
	now := d.clock.Now()
	g.ID = d.ids.New()
	g.UserID = d.owner()
	g.CreatedAt, g.UpdatedAt = now, now
	if g.Milestones == nil {
		g.Milestones = []domain.Milestone{}
	}
	for i := range g.Milestones {
		if g.Milestones[i].ID == "" {
			g.Milestones[i].ID = d.ids.New()
		}
	}
	if err := validateGoal(g); err != nil {
		return domain.Goal{}, err
	}
	err := d.commit("goal", "add", func(c *domain.Collections) error {
		c.Goals = append(c.Goals, g)
		return nil
	})
	if err != nil {
		return domain.Goal{}, err
	}
	d.put(ports.CollectionGoals, g.ID, g.UserID, g)
	return g, nil
}

func (d *DataStore) UpdateGoal(id string, p domain.GoalPatch) (domain.Goal, error) {
	var out domain.Goal
	err := d.commit("goal", "update", func(c *domain.Collections) error {
		i := indexByID(c.Goals, id, goalID)
		if i < 0 {
			return domain.NotFound("goal", id)
		}
		g := c.Goals[i]
		p.Apply(&g)
		if err := validateGoal(g); err != nil {
			return err
		}
		g.UpdatedAt = d.clock.Now()
		c.Goals[i] = g
		out = g
		return nil
	})
	if err != nil {
		return domain.Goal{}, err
	}
	d.put(ports.CollectionGoals, out.ID, out.UserID, out)
	return out, nil
}

func (d *DataStore) DeleteGoal(id string) error {
	return d.deleteRecord("goal", ports.CollectionGoals, id, func(c *domain.Collections) bool {
		i := indexByID(c.Goals, id, goalID)
		if i < 0 {
			return false
		}
		c.Goals = slices.Delete(c.Goals, i, i+1)
		return true
	})
}

// deleteRecord removes a record through drop. Deleting a missing record is
// a no-op that skips the local write.
func (d *DataStore) deleteRecord(kind, collection, id string, drop func(c *domain.Collections) bool) error {
	found := false
	err := d.commit(kind, "delete", func(c *domain.Collections) error {
		found = drop(c)
		if !found {
			return errNothingToDo
		}
		return nil
	})
	if errors.Is(err, errNothingToDo) {
		return nil
	}
	if err != nil {
		return err
	}
	d.remove(collection, id)
	return nil
}

var errNothingToDo = errors.New("nothing to do")

// Tasks

func validateTask(t domain.Task) error {
	if err := requireTitle(t.Title); err != nil {
		return err
	}
	if t.Priority != "" {
		if err := checkVar("priority", string(t.Priority), "oneof=low medium high", "must be one of: low medium high"); err != nil {
			return err
		}
	}
	return checkStruct(t)
}

func (d *DataStore) AddTask(t domain.Task) (domain.Task, error) {
	now := d.clock.Now()
	t.ID = d.ids.New()
	t.UserID = d.owner()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.IsCompleted && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	if !t.IsCompleted {
		t.CompletedAt = nil
	}
	if err := validateTask(t); err != nil {
		return domain.Task{}, err
	}
	err := d.commit("task", "add", func(c *domain.Collections) error {
		c.Tasks = append(c.Tasks, t)
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	d.put(ports.CollectionTasks, t.ID, t.UserID, t)
	return t, nil
}

func (d *DataStore) mutateTask(id, op string, fn func(t *domain.Task) error) (domain.Task, error) {
	var out domain.Task
	err := d.commit("task", op, func(c *domain.Collections) error {
		i := indexByID(c.Tasks, id, taskID)
		if i < 0 {
			return domain.NotFound("task", id)
		}
		t := c.Tasks[i]
		if err := fn(&t); err != nil {
			return err
		}
		t.UpdatedAt = d.clock.Now()
		c.Tasks[i] = t
		out = t
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	d.put(ports.CollectionTasks, out.ID, out.UserID, out)
	return out, nil
}

func (d *DataStore) UpdateTask(id string, p domain.TaskPatch) (domain.Task, error) {
	return d.mutateTask(id, "update", func(t *domain.Task) error {
		p.Apply(t)
		return validateTask(*t)
	})
}

// ToggleTask flips completion. completedAt is set exactly when the task is
// completed.
func (d *DataStore) ToggleTask(id string) (domain.Task, error) {
	return d.mutateTask(id, "toggle", func(t *domain.Task) error {
		t.IsCompleted = !t.IsCompleted
		if t.IsCompleted {
			now := d.clock.Now()
			t.CompletedAt = &now
		} else {
			t.CompletedAt = nil
		}
		return nil
	})
}

func (d *DataStore) DeleteTask(id string) error {
	return d.deleteRecord("task", ports.CollectionTasks, id, func(c *domain.Collections) bool {
		i := indexByID(c.Tasks, id, taskID)
		if i < 0 {
			return false
		}
		c.Tasks = slices.Delete(c.Tasks, i, i+1)
		return true
	})
}

// Reminders

func validateReminder(r domain.Reminder) error {
	if err := requireTitle(r.Title); err != nil {
		return err
	}
	if r.DueDate.IsZero() {
		return domain.NewValidationError("dueDate", "is required")
	}
	if r.Recurring != nil {
		if err := checkStruct(*r.Recurring); err != nil {
			return err
		}
	}
	return checkStruct(r)
}

func (d *DataStore) AddReminder(r domain.Reminder) (domain.Reminder, error) {
	r.ID = d.ids.New()
	r.UserID = d.owner()
	r.CreatedAt = d.clock.Now()
	if r.Priority == "" {
		r.Priority = domain.PriorityMedium
	}
	if err := validateReminder(r); err != nil {
		return domain.Reminder{}, err
	}
	err := d.commit("reminder", "add", func(c *domain.Collections) error {
		c.Reminders = append(c.Reminders, r)
		return nil
	})
	if err != nil {
		return domain.Reminder{}, err
	}
	d.put(ports.CollectionReminders, r.ID, r.UserID, r)
	return r, nil
}

func (d *DataStore) mutateReminder(id, op string, fn func(r *domain.Reminder) error) (domain.Reminder, error) {
	var out domain.Reminder
	err := d.commit("reminder", op, func(c *domain.Collections) error {
		i := indexByID(c.Reminders, id, reminderID)
		if i < 0 {
			return domain.NotFound("reminder", id)
		}
		r := c.Reminders[i]
		if err := fn(&r); err != nil {
			return err
		}
		c.Reminders[i] = r
		out = r
		return nil
	})
	if err != nil {
		return domain.Reminder{}, err
	}
	d.put(ports.CollectionReminders, out.ID, out.UserID, out)
	return out, nil
}

func (d *DataStore) UpdateReminder(id string, p domain.ReminderPatch) (domain.Reminder, error) {
	return d.mutateReminder(id, "update", func(r *domain.Reminder) error {
		p.Apply(r)
		return validateReminder(*r)
	})
}

func (d *DataStore) CompleteReminder(id string) (domain.Reminder, error) {
	return d.mutateReminder(id, "complete", func(r *domain.Reminder) error {
		r.IsCompleted = true
		return nil
	})
}

func (d *DataStore) DeleteReminder(id string) error {
	return d.deleteRecord("reminder", ports.CollectionReminders, id, func(c *domain.Collections) bool {
		i := indexByID(c.Reminders, id, reminderID)
		if i < 0 {
			return false
		}
		c.Reminders = slices.Delete(c.Reminders, i, i+1)
		return true
	})
}

// Journal

func validateJournal(j domain.JournalEntry) error {
	if strings.TrimSpace(j.Content) == "" {
		return domain.NewValidationError("content", "is required")
	}
	if j.Mood != "" {
		if err := checkVar("mood", string(j.Mood), "oneof=great good okay low bad", "must be one of: great good okay low bad"); err != nil {
			return err
		}
	}
	return checkStruct(j)
}

func (d *DataStore) AddJournalEntry(j domain.JournalEntry) (domain.JournalEntry, error) {
	now := d.clock.Now()
	j.ID = d.ids.New()
	j.UserID = d.owner()
	j.CreatedAt, j.UpdatedAt = now, now
	if j.Date.IsZero() {
		j.Date = now
	}
	if err := validateJournal(j); err != nil {
		return domain.JournalEntry{}, err
	}
	err := d.commit("journal", "add", func(c *domain.Collections) error {
		c.JournalEntries = append(c.JournalEntries, j)
		return nil
	})
	if err != nil {
		return domain.JournalEntry{}, err
	}
	d.put(ports.CollectionJournal, j.ID, j.UserID, j)
	return j, nil
}

func (d *DataStore) UpdateJournalEntry(id string, p domain.JournalPatch) (domain.JournalEntry, error) {
	var out domain.JournalEntry
	err := d.commit("journal", "update", func(c *domain.Collections) error {
		i := indexByID(c.JournalEntries, id, journalID)
		if i < 0 {
			return domain.NotFound("journal entry", id)
		}
		j := c.JournalEntries[i]
		p.Apply(&j)
		if err := validateJournal(j); err != nil {
			return err
		}
		j.UpdatedAt = d.clock.Now()
		c.JournalEntries[i] = j
		out = j
		return nil
	})
	if err != nil {
		return domain.JournalEntry{}, err
	}
	d.put(ports.CollectionJournal, out.ID, out.UserID, out)
	return out, nil
}

func (d *DataStore) DeleteJournalEntry(id string) error {
	return d.deleteRecord("journal", ports.CollectionJournal, id, func(c *domain.Collections) bool {
		i := indexByID(c.JournalEntries, id, journalID)
		if i < 0 {
			return false
		}
		c.JournalEntries = slices.Delete(c.JournalEntries, i, i+1)
		return true
	})
}

// Habits

func validateHabit(h domain.Habit) error {
	if err := requireTitle(h.Title); err != nil {
		return err
	}
	if err := checkStruct(h.Frequency); err != nil {
		return err
	}
	return checkStruct(h)
}

// AddHabit starts a habit with no completions. Streak fields are owned by
// CompleteHabitToday.
func (d *DataStore) AddHabit(h domain.Habit) (domain.Habit, error) {
	now := d.clock.Now()
	h.ID = d.ids.New()
	h.UserID = d.owner()
	h.CreatedAt, h.UpdatedAt = now, now
	h.Streak, h.LongestStreak = 0, 0
	h.CompletedDates = []string{}
	if h.Frequency.Frequency == "" {
		h.Frequency.Frequency = domain.FrequencyDaily
	}
	if h.Frequency.Interval == 0 {
		h.Frequency.Interval = 1
	}
	if err := validateHabit(h); err != nil {
		return domain.Habit{}, err
	}
	err := d.commit("habit", "add", func(c *domain.Collections) error {
		c.Habits = append(c.Habits, h)
		return nil
	})
	if err != nil {
		return domain.Habit{}, err
	}
	d.put(ports.CollectionHabits, h.ID, h.UserID, h)
	return h, nil
}

func (d *DataStore) UpdateHabit(id string, p domain.HabitPatch) (domain.Habit, error) {
	var out domain.Habit
	err := d.commit("habit", "update", func(c *domain.Collections) error {
		i := indexByID(c.Habits, id, habitID)
		if i < 0 {
			return domain.NotFound("habit", id)
		}
		h := c.Habits[i]
		p.Apply(&h)
		if err := validateHabit(h); err != nil {
			return err
		}
		h.UpdatedAt = d.clock.Now()
		c.Habits[i] = h
		out = h
		return nil
	})
	if err != nil {
		return domain.Habit{}, err
	}
	d.put(ports.CollectionHabits, out.ID, out.UserID, out)
	return out, nil
}

// CompleteHabitToday records today's completion once. A second call on the
// same calendar day returns the habit unchanged. Streaks never decay.
func (d *DataStore) CompleteHabitToday(id string) (domain.Habit, error) {
	now := d.clock.Now()
	key := now.Format(DayKeyLayout)

	var out domain.Habit
	changed := true
	err := d.commit("habit", "complete", func(c *domain.Collections) error {
		i := indexByID(c.Habits, id, habitID)
		if i < 0 {
			return domain.NotFound("habit", id)
		}
		h := c.Habits[i]
		if h.HasCompleted(key) {
			out, changed = h, false
			return errNothingToDo
		}
		pos, _ := slices.BinarySearch(h.CompletedDates, key)
		h.CompletedDates = slices.Insert(h.CompletedDates, pos, key)
		h.Streak++
		h.LongestStreak = max(h.LongestStreak, h.Streak)
		h.UpdatedAt = now
		c.Habits[i] = h
		out = h
		return nil
	})
	if !changed {
		return out, nil
	}
	if err != nil {
		return domain.Habit{}, err
	}
	d.put(ports.CollectionHabits, out.ID, out.UserID, out)
	return out, nil
}

func (d *DataStore) DeleteHabit(id string) error {
	return d.deleteRecord("habit", ports.CollectionHabits, id, func(c *domain.Collections) bool {
		i := indexByID(c.Habits, id, habitID)
		if i < 0 {
			return false
		}
		c.Habits = slices.Delete(c.Habits, i, i+1)
		return true
	})
}

// Domain items

func domainIndex(c *domain.Collections, t domain.DomainType) int {
	return slices.IndexFunc(c.Domains, func(dm domain.Domain) bool { return dm.Type == t })
}

func validateItem(it domain.DomainItem) error {
	if err := requireTitle(it.Title); err != nil {
		return err
	}
	return checkStruct(it)
}

// AddDomainItem appends it to the grouping for t, creating the grouping on
// first use.
func (d *DataStore) AddDomainItem(t domain.DomainType, it domain.DomainItem) (domain.DomainItem, error) {
	if !t.Valid() {
		return domain.DomainItem{}, domain.NewValidationError("domain", "unknown domain type")
	}
	now := d.clock.Now()
	it.ID = d.ids.New()
	it.CreatedAt, it.UpdatedAt = now, now
	if err := validateItem(it); err != nil {
		return domain.DomainItem{}, err
	}

	var group domain.Domain
	err := d.commit("domain_item", "add", func(c *domain.Collections) error {
		i := domainIndex(c, t)
		if i < 0 {
			c.Domains = append(c.Domains, domain.Domain{
				ID:     d.ids.New(),
				UserID: d.owner(),
				Type:   t,
				Items:  []domain.DomainItem{},
			})
			i = len(c.Domains) - 1
		}
		c.Domains[i].Items = append(c.Domains[i].Items, it)
		c.Domains[i].LastUpdated = now
		group = c.Domains[i]
		return nil
	})
	if err != nil {
		return domain.DomainItem{}, err
	}
	d.put(ports.CollectionDomains, group.ID, group.UserID, group)
	return it, nil
}

func (d *DataStore) UpdateDomainItem(t domain.DomainType, id string, p domain.DomainItemPatch) (domain.DomainItem, error) {
	now := d.clock.Now()
	var (
		out   domain.DomainItem
		group domain.Domain
	)
	err := d.commit("domain_item", "update", func(c *domain.Collections) error {
		gi := domainIndex(c, t)
		if gi < 0 {
			return domain.NotFound("domain item", id)
		}
		items := c.Domains[gi].Items
		i := indexByID(items, id, itemID)
		if i < 0 {
			return domain.NotFound("domain item", id)
		}
		it := items[i]
		p.Apply(&it)
		if err := validateItem(it); err != nil {
			return err
		}
		it.UpdatedAt = now
		items[i] = it
		c.Domains[gi].LastUpdated = now
		out, group = it, c.Domains[gi]
		return nil
	})
	if err != nil {
		return domain.DomainItem{}, err
	}
	d.put(ports.CollectionDomains, group.ID, group.UserID, group)
	return out, nil
}

// DeleteDomainItem removes an item; the grouping itself stays.
func (d *DataStore) DeleteDomainItem(t domain.DomainType, id string) error {
	var group domain.Domain
	err := d.commit("domain_item", "delete", func(c *domain.Collections) error {
		gi := domainIndex(c, t)
		if gi < 0 {
			return errNothingToDo
		}
		i := indexByID(c.Domains[gi].Items, id, itemID)
		if i < 0 {
			return errNothingToDo
		}
		c.Domains[gi].Items = slices.Delete(c.Domains[gi].Items, i, i+1)
		c.Domains[gi].LastUpdated = d.clock.Now()
		group = c.Domains[gi]
		return nil
	})
	if errors.Is(err, errNothingToDo) {
		return nil
	}
	if err != nil {
		return err
	}
	d.put(ports.CollectionDomains, group.ID, group.UserID, group)
	return nil
}

// Chat

// AddChatMessage appends one message to the history.
func (d *DataStore) AddChatMessage(role domain.ChatRole, content string) (domain.ChatMessage, error) {
	msg := domain.ChatMessage{
		ID:        d.ids.New(),
		Role:      role,
		Content:   content,
		Timestamp: d.clock.Now(),
	}
	err := d.commit("chat", "add", func(c *domain.Collections) error {
		c.ChatMessages = append(c.ChatMessages, msg)
		return nil
	})
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return msg, nil
}

func (d *DataStore) ClearChatHistory() error {
	return d.commit("chat", "clear", func(c *domain.Collections) error {
		c.ChatMessages = []domain.ChatMessage{}
		return nil
	})
}

// Insights

func (d *DataStore) AddInsight(in domain.Insight) (domain.Insight, error) {
	in.ID = d.ids.New()
	in.UserID = d.owner()
	in.CreatedAt = d.clock.Now()
	in.IsRead, in.IsDismissed = false, false
	if in.Type == "" {
		in.Type = domain.InsightInsight
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if strings.TrimSpace(in.Content) == "" {
		return domain.Insight{}, domain.NewValidationError("content", "is required")
	}
	err := d.commit("insight", "add", func(c *domain.Collections) error {
		c.Insights = append(c.Insights, in)
		return nil
	})
	if err != nil {
		return domain.Insight{}, err
	}
	return in, nil
}

func (d *DataStore) mutateInsight(id, op string, fn func(in *domain.Insight)) error {
	return d.commit("insight", op, func(c *domain.Collections) error {
		i := indexByID(c.Insights, id, insightID)
		if i < 0 {
			return domain.NotFound("insight", id)
		}
		fn(&c.Insights[i])
		return nil
	})
}

func (d *DataStore) MarkInsightRead(id string) error {
	return d.mutateInsight(id, "read", func(in *domain.Insight) { in.IsRead = true })
}

// DismissInsight hides an insight. Dismissed insights are not persisted.
func (d *DataStore) DismissInsight(id string) error {
	return d.mutateInsight(id, "dismiss", func(in *domain.Insight) { in.IsDismissed = true })
}
