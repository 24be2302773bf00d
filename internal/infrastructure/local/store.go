// Package local persists the session and data documents on disk.
package local

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

const cacheSizeMax = 1024 * 1024 // 1MB

// Store keeps each document as one JSON file under the base directory.
type Store struct {
	mu sync.Mutex
	d  *diskv.Diskv
}

var _ ports.LocalPersistence = (*Store)(nil)

// Open returns a Store rooted at basePath. The directory is created on the
// first write.
func Open(basePath string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: flatTransform,
		InverseTransform:  flatInverse,
		CacheSizeMax:      cacheSizeMax,
	})}
}

func flatTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{Path: []string{}, FileName: key}
}

func flatInverse(pk *diskv.PathKey) string {
	return pk.FileName
}

func (s *Store) load(key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(key) {
		return false, nil
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.d.Write(key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) LoadSession() (domain.SessionSnapshot, bool, error) {
	var snap domain.SessionSnapshot
	ok, err := s.load(ports.SessionDocument, &snap)
	return snap, ok, err
}

func (s *Store) SaveSession(snap domain.SessionSnapshot) error {
	return s.save(ports.SessionDocument, snap)
}

func (s *Store) LoadData() (domain.Collections, bool, error) {
	var data domain.Collections
	ok, err := s.load(ports.DataDocument, &data)
	return data, ok, err
}

func (s *Store) SaveData(data domain.Collections) error {
	return s.save(ports.DataDocument, data)
}

// Erase removes both documents.
func (s *Store) Erase() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range []string{ports.SessionDocument, ports.DataDocument} {
		if !s.d.Has(key) {
			continue
		}
		if err := s.d.Erase(key); err != nil {
			return fmt.Errorf("erase %s: %w", key, err)
		}
	}
	return nil
}
