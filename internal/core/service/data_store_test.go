package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
)

// syncMirror forwards mirror calls straight to a RemoteStore.
type syncMirror struct {
	remote ports.RemoteStore
}

func (m syncMirror) Put(collection, id string, record any) {
	_, _ = m.remote.Create(context.Background(), collection, record, id)
}

func (m syncMirror) Remove(collection, id string) {
	_ = m.remote.Delete(context.Background(), collection, id)
}

type storeFixture struct {
	local  *memLocal
	remote *spyRemote
	clock  *clock.Fixed
	owner  string
	store  *DataStore
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	f := &storeFixture{
		local:  &memLocal{},
		remote: &spyRemote{},
		clock:  clock.NewFixed(t0),
		owner:  "u1",
	}
	f.store = NewDataStore(f.local, func() string { return f.owner }, DataStoreOptions{
		Clock:  f.clock,
		IDs:    &seqIDs{},
		Mirror: syncMirror{remote: f.remote},
	}, zerolog.Nop())
	return f
}

func TestDataStore_AddGoal(t *testing.T) {
	f := newStoreFixture(t)

	g, err := f.store.AddGoal(domain.Goal{Title: "Run a marathon", Category: domain.CategoryHealth})
	if err != nil {
		t.Fatalf("AddGoal returned error: %v", err)
	}
	if g.ID == "" || g.UserID != "u1" || !g.CreatedAt.Equal(t0) {
		t.Fatalf("expected id, owner and timestamps, got %+v", g)
	}
	if len(f.store.Snapshot().Goals) != 1 {
		t.Fatalf("expected goal in memory")
	}
	if f.local.data == nil || len(f.local.data.Goals) != 1 {
		t.Fatalf("expected goal persisted locally")
	}
	if f.remote.count() != 1 {
		t.Fatalf("expected goal mirrored, got %d calls", f.remote.count())
	}
}

func TestDataStore_Validation(t *testing.T) {
	f := newStoreFixture(t)

	if _, err := f.store.AddGoal(domain.Goal{Title: "  "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}
	if _, err := f.store.AddGoal(domain.Goal{Title: "x", Progress: 120}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for progress, got %v", err)
	}
	if _, err := f.store.AddReminder(domain.Reminder{Title: "call"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing due date, got %v", err)
	}
	if _, err := f.store.AddJournalEntry(domain.JournalEntry{Content: ""}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty content, got %v", err)
	}
	if f.local.saves != 0 {
		t.Fatalf("invalid records must not be written, got %d saves", f.local.saves)
	}
}

func TestDataStore_UpdateMissingIsNotFound(t *testing.T) {
	f := newStoreFixture(t)
	title := "new"

	if _, err := f.store.UpdateGoal("missing", domain.GoalPatch{Title: &title}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for goal, got %v", err)
	}
	if _, err := f.store.UpdateTask("missing", domain.TaskPatch{Title: &title}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for task, got %v", err)
	}
	if _, err := f.store.ToggleTask("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for toggle, got %v", err)
	}
	if _, err := f.store.CompleteHabitToday("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for habit, got %v", err)
	}
	if _, err := f.store.UpdateDomainItem(domain.DomainPets, "missing", domain.DomainItemPatch{Title: &title}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for domain item, got %v", err)
	}
}

func TestDataStore_DeleteIsIdempotent(t *testing.T) {
	f := newStoreFixture(t)
	task, _ := f.store.AddTask(domain.Task{Title: "Email Sam"})

	if err := f.store.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	saves := f.local.saves
	if err := f.store.DeleteTask(task.ID); err != nil {
		t.Fatalf("second DeleteTask returned error: %v", err)
	}
	if f.local.saves != saves {
		t.Fatalf("expected no write for missing record")
	}
	if len(f.store.Snapshot().Tasks) != 0 {
		t.Fatalf("expected task removed")
	}
	for _, del := range []func(string) error{f.store.DeleteGoal, f.store.DeleteReminder, f.store.DeleteJournalEntry, f.store.DeleteHabit} {
		if err := del("ghost"); err != nil {
			t.Fatalf("expected nil deleting missing record, got %v", err)
		}
	}
}

func TestDataStore_ToggleTaskIsItsOwnInverse(t *testing.T) {
	f := newStoreFixture(t)
	task, _ := f.store.AddTask(domain.Task{Title: "Stretch"})

	done, err := f.store.ToggleTask(task.ID)
	if err != nil {
		t.Fatalf("ToggleTask returned error: %v", err)
	}
	if !done.IsCompleted || done.CompletedAt == nil || !done.CompletedAt.Equal(t0) {
		t.Fatalf("expected completed task with completedAt, got %+v", done)
	}

	undone, err := f.store.ToggleTask(task.ID)
	if err != nil {
		t.Fatalf("ToggleTask returned error: %v", err)
	}
	if undone.IsCompleted || undone.CompletedAt != nil {
		t.Fatalf("expected task back to open, got %+v", undone)
	}
	if undone.Title != task.Title || undone.Priority != task.Priority {
		t.Fatalf("toggle changed unrelated fields: %+v", undone)
	}
}

func TestDataStore_CompleteHabitToday(t *testing.T) {
	f := newStoreFixture(t)
	h, _ := f.store.AddHabit(domain.Habit{Title: "Meditate", IsActive: true})

	first, err := f.store.CompleteHabitToday(h.ID)
	if err != nil {
		t.Fatalf("CompleteHabitToday returned error: %v", err)
	}
	if first.Streak != 1 || first.LongestStreak != 1 || len(first.CompletedDates) != 1 {
		t.Fatalf("unexpected habit after first completion: %+v", first)
	}

	saves := f.local.saves
	again, err := f.store.CompleteHabitToday(h.ID)
	if err != nil {
		t.Fatalf("repeat CompleteHabitToday returned error: %v", err)
	}
	if again.Streak != 1 || len(again.CompletedDates) != 1 {
		t.Fatalf("same-day completion must be a no-op, got %+v", again)
	}
	if f.local.saves != saves {
		t.Fatalf("same-day completion must not write")
	}

	f.clock.Advance(24 * time.Hour)
	next, err := f.store.CompleteHabitToday(h.ID)
	if err != nil {
		t.Fatalf("next-day CompleteHabitToday returned error: %v", err)
	}
	if next.Streak != 2 || next.LongestStreak != 2 {
		t.Fatalf("expected streak 2, got %+v", next)
	}
	want := []string{"2025-03-10", "2025-03-11"}
	if len(next.CompletedDates) != 2 || next.CompletedDates[0] != want[0] || next.CompletedDates[1] != want[1] {
		t.Fatalf("expected dates %v, got %v", want, next.CompletedDates)
	}
}

func TestDataStore_CompleteHabitToday_NoDecayAfterGap(t *testing.T) {
	f := newStoreFixture(t)
	h, _ := f.store.AddHabit(domain.Habit{Title: "Read"})
	_, _ = f.store.CompleteHabitToday(h.ID)

	f.clock.Advance(5 * 24 * time.Hour)
	got, err := f.store.CompleteHabitToday(h.ID)
	if err != nil {
		t.Fatalf("CompleteHabitToday returned error: %v", err)
	}
	if got.Streak != 2 {
		t.Fatalf("expected streak to keep counting, got %d", got.Streak)
	}
}

func TestDataStore_UpdateHabitKeepsStreak(t *testing.T) {
	f := newStoreFixture(t)
	h, _ := f.store.AddHabit(domain.Habit{Title: "Walk"})
	_, _ = f.store.CompleteHabitToday(h.ID)

	title := "Walk 10k"
	got, err := f.store.UpdateHabit(h.ID, domain.HabitPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateHabit returned error: %v", err)
	}
	if got.Title != title || got.Streak != 1 || len(got.CompletedDates) != 1 {
		t.Fatalf("unexpected habit: %+v", got)
	}
}

func TestDataStore_DomainItemsGroupedByType(t *testing.T) {
	f := newStoreFixture(t)

	first, err := f.store.AddDomainItem(domain.DomainPets, domain.DomainItem{Title: "Vet visit", Type: "appointment"})
	if err != nil {
		t.Fatalf("AddDomainItem returned error: %v", err)
	}
	if _, err := f.store.AddDomainItem(domain.DomainPets, domain.DomainItem{Title: "Flea meds"}); err != nil {
		t.Fatalf("AddDomainItem returned error: %v", err)
	}
	if _, err := f.store.AddDomainItem(domain.DomainAuto, domain.DomainItem{Title: "Oil change"}); err != nil {
		t.Fatalf("AddDomainItem returned error: %v", err)
	}

	snap := f.store.Snapshot()
	if len(snap.Domains) != 2 {
		t.Fatalf("expected two groupings, got %d", len(snap.Domains))
	}
	if snap.Domains[0].Type != domain.DomainPets || len(snap.Domains[0].Items) != 2 {
		t.Fatalf("unexpected pets grouping: %+v", snap.Domains[0])
	}
	if snap.Domains[0].UserID != "u1" {
		t.Fatalf("expected grouping owned by u1")
	}

	f.clock.Advance(time.Hour)
	title := "Vet checkup"
	updated, err := f.store.UpdateDomainItem(domain.DomainPets, first.ID, domain.DomainItemPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateDomainItem returned error: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if got := f.store.Snapshot().Domains[0].LastUpdated; !got.Equal(t0.Add(time.Hour)) {
		t.Fatalf("expected lastUpdated bumped, got %v", got)
	}

	if err := f.store.DeleteDomainItem(domain.DomainPets, first.ID); err != nil {
		t.Fatalf("DeleteDomainItem returned error: %v", err)
	}
	if err := f.store.DeleteDomainItem(domain.DomainPets, first.ID); err != nil {
		t.Fatalf("repeat DeleteDomainItem returned error: %v", err)
	}
	if n := len(f.store.Snapshot().Domains[0].Items); n != 1 {
		t.Fatalf("expected one pets item left, got %d", n)
	}

	if _, err := f.store.AddDomainItem("spaceships", domain.DomainItem{Title: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
}

func TestDataStore_FailedWriteLeavesMemoryUnchanged(t *testing.T) {
	f := newStoreFixture(t)
	g, _ := f.store.AddGoal(domain.Goal{Title: "Save money"})
	f.local.failData = true

	title := "Spend money"
	if _, err := f.store.UpdateGoal(g.ID, domain.GoalPatch{Title: &title}); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected local write error, got %v", err)
	}
	if _, err := f.store.AddTask(domain.Task{Title: "x"}); err == nil {
		t.Fatalf("expected add to fail")
	}

	snap := f.store.Snapshot()
	if snap.Goals[0].Title != "Save money" || len(snap.Tasks) != 0 {
		t.Fatalf("memory changed despite failed write: %+v", snap)
	}
	if f.remote.count() != 1 {
		t.Fatalf("failed mutations must not be mirrored, got %d calls", f.remote.count())
	}
}

func TestDataStore_InitRestoresLocalDocument(t *testing.T) {
	f := newStoreFixture(t)
	f.local.data = &domain.Collections{Goals: []domain.Goal{{ID: "g1", Title: "Stored"}}}

	if err := f.store.Init(); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if got := f.store.Snapshot().Goals; len(got) != 1 || got[0].Title != "Stored" {
		t.Fatalf("expected restored goal, got %+v", got)
	}
}

func TestDataStore_ChatAndInsightsPersistence(t *testing.T) {
	f := newStoreFixture(t)
	for i := 0; i < domain.ChatHistoryLimit+5; i++ {
		if _, err := f.store.AddChatMessage(domain.RoleUser, "hi"); err != nil {
			t.Fatalf("AddChatMessage returned error: %v", err)
		}
	}
	if n := len(f.local.data.ChatMessages); n != domain.ChatHistoryLimit {
		t.Fatalf("expected %d persisted messages, got %d", domain.ChatHistoryLimit, n)
	}

	in, err := f.store.AddInsight(domain.Insight{Content: "Sleep earlier"})
	if err != nil {
		t.Fatalf("AddInsight returned error: %v", err)
	}
	if err := f.store.MarkInsightRead(in.ID); err != nil {
		t.Fatalf("MarkInsightRead returned error: %v", err)
	}
	if err := f.store.DismissInsight(in.ID); err != nil {
		t.Fatalf("DismissInsight returned error: %v", err)
	}
	if len(f.local.data.Insights) != 0 {
		t.Fatalf("dismissed insight must not be persisted")
	}
	if err := f.store.DismissInsight("ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := f.store.ClearChatHistory(); err != nil {
		t.Fatalf("ClearChatHistory returned error: %v", err)
	}
	if len(f.store.Snapshot().ChatMessages) != 0 {
		t.Fatalf("expected empty chat history")
	}
}

func TestDataStore_DemoSessionNeverReachesRemote(t *testing.T) {
	sf := newSessionFixture(t, false)
	sf.init(t)
	if _, err := sf.mgr.EnterDemoMode(context.Background()); err != nil {
		t.Fatalf("EnterDemoMode returned error: %v", err)
	}

	remote := &spyRemote{}
	guard := NewRemoteGuard(remote, sf.demo, sf.clock, zerolog.Nop())
	local := &memLocal{}
	store := NewDataStore(local, sf.mgr.CurrentUserID, DataStoreOptions{
		Clock:  sf.clock,
		IDs:    &seqIDs{},
		Mirror: syncMirror{remote: guard},
	}, zerolog.Nop())

	g, err := store.AddGoal(domain.Goal{Title: "Try the app"})
	if err != nil {
		t.Fatalf("AddGoal returned error: %v", err)
	}
	if g.UserID != domain.DemoUserID {
		t.Fatalf("expected demo owner, got %q", g.UserID)
	}
	task, _ := store.AddTask(domain.Task{Title: "Explore"})
	_, _ = store.ToggleTask(task.ID)
	_ = store.DeleteGoal(g.ID)

	if remote.count() != 0 {
		t.Fatalf("expected zero remote calls in demo mode, got %v", remote.calls)
	}
	if len(local.data.Tasks) != 1 {
		t.Fatalf("expected demo data persisted locally")
	}
	if sf.profiles.calls() != 0 {
		t.Fatalf("expected zero profile calls in demo mode, got %d", sf.profiles.calls())
	}
}

// queuedMirror holds mirror calls until flush, like a worker that has not
// drained yet.
type queuedMirror struct {
	puts []string
}

func (m *queuedMirror) Put(collection, id string, _ any) { m.puts = append(m.puts, collection+":"+id) }
func (m *queuedMirror) Remove(collection, id string)     { m.puts = append(m.puts, collection+":"+id) }

func (m *queuedMirror) flush(remote ports.RemoteStore) {
	for _, p := range m.puts {
		_, _ = remote.Create(context.Background(), p, nil, p)
	}
	m.puts = nil
}

func TestDataStore_DemoRecordsStayLocalAcrossSignOut(t *testing.T) {
	sf := newSessionFixture(t, false)
	sf.init(t)
	if _, err := sf.mgr.EnterDemoMode(context.Background()); err != nil {
		t.Fatalf("EnterDemoMode returned error: %v", err)
	}

	remote := &spyRemote{}
	guard := NewRemoteGuard(remote, sf.demo, sf.clock, zerolog.Nop())
	queue := &queuedMirror{}
	store := NewDataStore(&memLocal{}, sf.mgr.CurrentUserID, DataStoreOptions{
		Clock:  sf.clock,
		IDs:    &seqIDs{},
		Mirror: queue,
	}, zerolog.Nop())

	task, err := store.AddTask(domain.Task{Title: "Explore"})
	if err != nil {
		t.Fatalf("AddTask returned error: %v", err)
	}
	if err := sf.mgr.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}
	queue.flush(guard)
	if remote.count() != 0 {
		t.Fatalf("expected demo task to stay local after sign-out, got %v", remote.calls)
	}

	sf.idp.emailIdent = &domain.Identity{UID: "u1", Email: "a@b.co"}
	if _, err := sf.mgr.SignInWithEmail(context.Background(), "a@b.co", "secret1"); err != nil {
		t.Fatalf("SignInWithEmail returned error: %v", err)
	}
	if _, err := store.ToggleTask(task.ID); err != nil {
		t.Fatalf("ToggleTask returned error: %v", err)
	}
	queue.flush(guard)
	if remote.count() != 0 {
		t.Fatalf("expected demo-owned task to stay local, got %v", remote.calls)
	}
}

func TestDataStore_SignedOutDoesNotMirror(t *testing.T) {
	f := newStoreFixture(t)
	f.owner = ""
	if _, err := f.store.AddGoal(domain.Goal{Title: "Anonymous"}); err != nil {
		t.Fatalf("AddGoal returned error: %v", err)
	}
	if f.remote.count() != 0 {
		t.Fatalf("expected no mirror without an owner")
	}
}
