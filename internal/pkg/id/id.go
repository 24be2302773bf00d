package id

import "github.com/google/uuid"

// Generator creates opaque record identifiers.
type Generator interface {
	New() string
}

// UUID issues random version 4 UUIDs.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) New() string {
	return f()
}
