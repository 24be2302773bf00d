package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

// Records is a process-local ports.RemoteStore. Documents are encoded with
// the same bson field names the database uses.
type Records struct {
	mu          sync.Mutex
	collections map[string]map[string]bson.M
}

var _ ports.RemoteStore = (*Records)(nil)

func NewRecords() *Records {
	return &Records{collections: make(map[string]map[string]bson.M)}
}

func toDocument(m bson.M) ports.Document {
	doc := make(ports.Document, len(m))
	for k, v := range m {
		if k == "_id" {
			k = "id"
		}
		doc[k] = v
	}
	return doc
}

func (r *Records) Create(_ context.Context, collection string, doc any, id string) (string, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", collection, err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("decode %s: %w", collection, err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	m["_id"] = id

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.collections[collection]
	if !ok {
		c = make(map[string]bson.M)
		r.collections[collection] = c
	}
	c[id] = m
	return id, nil
}

func (r *Records) GetOne(_ context.Context, collection, id string) (ports.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return toDocument(m), nil
}

func (r *Records) GetByUser(_ context.Context, collection, userID string) ([]ports.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := []ports.Document{}
	for _, m := range r.collections[collection] {
		if m["user_id"] == userID {
			docs = append(docs, toDocument(m))
		}
	}
	return docs, nil
}

func (r *Records) Update(_ context.Context, collection, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.collections[collection][id]
	if !ok {
		return domain.NotFound(collection, id)
	}
	for k, v := range fields {
		m[k] = v
	}
	return nil
}

func (r *Records) Delete(_ context.Context, collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.collections[collection], id)
	return nil
}

// Len reports how many documents collection holds.
func (r *Records) Len(collection string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.collections[collection])
}
