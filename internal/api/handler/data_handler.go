package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
)

// DataHandler exposes the local data collections and the dashboard.
type DataHandler struct {
	data  ports.DataService
	clock clock.Clock
}

func NewDataHandler(data ports.DataService, clk clock.Clock) *DataHandler {
	if clk == nil {
		clk = clock.System{}
	}
	return &DataHandler{data: data, clock: clk}
}

func create[T any](c echo.Context, add func(T) (T, error)) error {
	var in T
	if err := bind(c, &in); err != nil {
		return err
	}
	out, err := add(in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func update[P, T any](c echo.Context, apply func(string, P) (T, error)) error {
	var patch P
	if err := bind(c, &patch); err != nil {
		return err
	}
	out, err := apply(c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func act[T any](c echo.Context, fn func(string) (T, error)) error {
	out, err := fn(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func noContent(c echo.Context, fn func(string) error) error {
	if err := fn(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func domainType(c echo.Context) (domain.DomainType, error) {
	t := domain.DomainType(c.Param("type"))
	if !t.Valid() {
		return "", domain.NewValidationError("type", "unknown life domain")
	}
	return t, nil
}

// Snapshot returns every collection.
//
// @Summary      Get all local collections
// @Tags         data
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Collections
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/data [get]
func (h *DataHandler) Snapshot(c echo.Context) error {
	return c.JSON(http.StatusOK, h.data.Snapshot())
}

// Dashboard returns the stats projection for today.
//
// @Summary      Get dashboard stats
// @Tags         data
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.DashboardStats
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/dashboard [get]
func (h *DataHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.data.Stats(h.clock.Now()))
}

// AddGoal creates a goal.
//
// @Summary      Create a goal
// @Tags         goals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.Goal  true  "New goal"
// @Success      201   {object}  domain.Goal
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/goals [post]
func (h *DataHandler) AddGoal(c echo.Context) error {
	return create(c, h.data.AddGoal)
}

// UpdateGoal updates a goal.
//
// @Summary      Update a goal
// @Tags         goals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Goal id"
// @Param        body  body      domain.GoalPatch  true  "Fields to change"
// @Success      200   {object}  domain.Goal
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/goals/{id} [patch]
func (h *DataHandler) UpdateGoal(c echo.Context) error {
	return update(c, h.data.UpdateGoal)
}

// DeleteGoal is idempotent.
//
// @Summary      Delete a goal
// @Tags         goals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Goal id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /api/goals/{id} [delete]
func (h *DataHandler) DeleteGoal(c echo.Context) error {
	return noContent(c, h.data.DeleteGoal)
}

// AddTask creates a task.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.Task  true  "New task"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/tasks [post]
func (h *DataHandler) AddTask(c echo.Context) error {
	return create(c, h.data.AddTask)
}

// UpdateTask updates a task.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Task id"
// @Param        body  body      domain.TaskPatch  true  "Fields to change"
// @Success      200   {object}  domain.Task
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/tasks/{id} [patch]
func (h *DataHandler) UpdateTask(c echo.Context) error {
	return update(c, h.data.UpdateTask)
}

// ToggleTask flips completion and stamps completedAt.
//
// @Summary      Toggle a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id}/toggle [post]
func (h *DataHandler) ToggleTask(c echo.Context) error {
	return act(c, h.data.ToggleTask)
}

// DeleteTask deletes a task.
//
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /api/tasks/{id} [delete]
func (h *DataHandler) DeleteTask(c echo.Context) error {
	return noContent(c, h.data.DeleteTask)
}

// AddReminder creates a reminder.
//
// @Summary      Create a reminder
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.Reminder  true  "New reminder"
// @Success      201   {object}  domain.Reminder
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/reminders [post]
func (h *DataHandler) AddReminder(c echo.Context) error {
	return create(c, h.data.AddReminder)
}

// UpdateReminder updates a reminder.
//
// @Summary      Update a reminder
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Reminder id"
// @Param        body  body      domain.ReminderPatch  true  "Fields to change"
// @Success      200   {object}  domain.Reminder
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/reminders/{id} [patch]
func (h *DataHandler) UpdateReminder(c echo.Context) error {
	return update(c, h.data.UpdateReminder)
}

// CompleteReminder completes a reminder.
//
// @Summary      Complete a reminder
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reminder id"
// @Success      200  {object}  domain.Reminder
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/reminders/{id}/complete [post]
func (h *DataHandler) CompleteReminder(c echo.Context) error {
	return act(c, h.data.CompleteReminder)
}

// DeleteReminder deletes a reminder.
//
// @Summary      Delete a reminder
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reminder id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /api/reminders/{id} [delete]
func (h *DataHandler) DeleteReminder(c echo.Context) error {
	return noContent(c, h.data.DeleteReminder)
}

// AddJournalEntry creates a journal entry.
//
// @Summary      Create a journal entry
// @Tags         journal
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.JournalEntry  true  "New journal entry"
// @Success      201   {object}  domain.JournalEntry
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/journal [post]
func (h *DataHandler) AddJournalEntry(c echo.Context) error {
	return create(c, h.data.AddJournalEntry)
}

// UpdateJournalEntry updates a journal entry.
//
// @Summary      Update a journal entry
// @Tags         journal
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Journal entry id"
// @Param        body  body      domain.JournalPatch  true  "Fields to change"
// @Success      200   {object}  domain.JournalEntry
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/journal/{id} [patch]
func (h *DataHandler) UpdateJournalEntry(c echo.Context) error {
	return update(c, h.data.UpdateJournalEntry)
}

// DeleteJournalEntry deletes a journal entry.
//
// @Summary      Delete a journal entry
// @Tags         journal
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Journal entry id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /api/journal/{id} [delete]
func (h *DataHandler) DeleteJournalEntry(c echo.Context) error {
	return noContent(c, h.data.DeleteJournalEntry)
}

// AddHabit creates a habit.
//
// @Summary      Create a habit
// @Tags         habits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.Habit  true  "New habit"
// @Success      201   {object}  domain.Habit
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/habits [post]
func (h *DataHandler) AddHabit(c echo.Context) error {
	return create(c, h.data.AddHabit)
}

// UpdateHabit updates a habit.
//
// @Summary      Update a habit
// @Tags         habits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Habit id"
// @Param        body  body      domain.HabitPatch  true  "Fields to change"
// @Success      200   {object}  domain.Habit
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/habits/{id} [patch]
func (h *DataHandler) UpdateHabit(c echo.Context) error {
	return update(c, h.data.UpdateHabit)
}

// CompleteHabit records today's completion. A second call on the same day
// changes nothing.
//
// @Summary      Complete a habit for today
// @Tags         habits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Habit id"
// @Success      200  {object}  domain.Habit
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/habits/{id}/complete [post]
func (h *DataHandler) CompleteHabit(c echo.Context) error {
	return act(c, h.data.CompleteHabitToday)
}

// DeleteHabit deletes a habit.
//
// @Summary      Delete a habit
// @Tags         habits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Habit id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /api/habits/{id} [delete]
func (h *DataHandler) DeleteHabit(c echo.Context) error {
	return noContent(c, h.data.DeleteHabit)
}

// AddDomainItem adds an item, creating the domain grouping on first use.
//
// @Summary      Create a life-domain item
// @Tags         domains
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string             true  "Life domain"
// @Param        body  body      domain.DomainItem  true  "New item"
// @Success      201   {object}  domain.DomainItem
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/domains/{type}/items [post]
func (h *DataHandler) AddDomainItem(c echo.Context) error {
	t, err := domainType(c)
	if err != nil {
		return err
	}
	return create(c, func(it domain.DomainItem) (domain.DomainItem, error) {
		return h.data.AddDomainItem(t, it)
	})
}

// UpdateDomainItem updates a life-domain item.
//
// @Summary      Update a life-domain item
// @Tags         domains
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string                  true  "Life domain"
// @Param        id    path      string                  true  "Item id"
// @Param        body  body      domain.DomainItemPatch  true  "Fields to change"
// @Success      200   {object}  domain.DomainItem
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/domains/{type}/items/{id} [patch]
func (h *DataHandler) UpdateDomainItem(c echo.Context) error {
	t, err := domainType(c)
	if err != nil {
		return err
	}
	return update(c, func(id string, p domain.DomainItemPatch) (domain.DomainItem, error) {
		return h.data.UpdateDomainItem(t, id, p)
	})
}

// DeleteDomainItem deletes a life-domain item.
//
// @Summary      Delete a life-domain item
// @Tags         domains
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string  true  "Life domain"
// @Param        id    path      string  true  "Item id"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/domains/{type}/items/{id} [delete]
func (h *DataHandler) DeleteDomainItem(c echo.Context) error {
	t, err := domainType(c)
	if err != nil {
		return err
	}
	return noContent(c, func(id string) error { return h.data.DeleteDomainItem(t, id) })
}

// AddInsight stores an assistant insight.
//
// @Summary      Store an assistant insight
// @Tags         insights
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.Insight  true  "Insight"
// @Success      201   {object}  domain.Insight
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/insights [post]
func (h *DataHandler) AddInsight(c echo.Context) error {
	return create(c, h.data.AddInsight)
}

// MarkInsightRead marks an insight as read.
//
// @Summary      Mark an insight as read
// @Tags         insights
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Insight id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/insights/{id}/read [post]
func (h *DataHandler) MarkInsightRead(c echo.Context) error {
	return noContent(c, h.data.MarkInsightRead)
}

// DismissInsight drops the insight; dismissed insights are not persisted.
//
// @Summary      Dismiss an insight
// @Tags         insights
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Insight id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/insights/{id} [delete]
func (h *DataHandler) DismissInsight(c echo.Context) error {
	return noContent(c, h.data.DismissInsight)
}
