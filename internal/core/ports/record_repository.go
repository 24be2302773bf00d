package ports

import "context"

// Remote collection names.
const (
	CollectionGoals     = "goals"
	CollectionTasks     = "tasks"
	CollectionReminders = "reminders"
	CollectionJournal   = "journal_entries"
	CollectionHabits    = "habits"
	CollectionDomains   = "domains"
)

// Document is a record as read back from the remote store. The "id" key
// always holds the record id.
type Document map[string]any

// RemoteStore is the shared, durable record store.
type RemoteStore interface {
	// Create writes doc under id, or under a generated id when id is empty,
	// replacing any existing document. It returns the id used.
	Create(ctx context.Context, collection string, doc any, id string) (string, error)
	// GetOne returns nil, nil when the document does not exist.
	GetOne(ctx context.Context, collection, id string) (Document, error)
	GetByUser(ctx context.Context, collection, userID string) ([]Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}

// Mirror receives every local mutation for asynchronous replication.
type Mirror interface {
	Put(collection, id string, record any)
	Remove(collection, id string)
}
