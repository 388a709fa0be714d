package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tendant/fragments/pkg/fragments"
)

// Store is an in-memory implementation of the fragments.Store interface,
// used for tests and development.
type Store struct {
	mu       sync.RWMutex
	metadata map[string]fragments.Fragment
	data     map[string][]byte
}

// New creates a new in-memory storage backend
func New() fragments.Store {
	return &Store{
		metadata: make(map[string]fragments.Fragment),
		data:     make(map[string][]byte),
	}
}

func key(ownerID, id string) string {
	return ownerID + "/" + id
}

func (s *Store) WriteMetadata(ctx context.Context, f *fragments.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metadata[key(f.OwnerID, f.ID)] = *f
	return nil
}

func (s *Store) ReadMetadata(ctx context.Context, ownerID, id string) (*fragments.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.metadata[key(ownerID, id)]
	if !ok {
		return nil, fragments.ErrFragmentNotFound
	}
	out := f
	return &out, nil
}

func (s *Store) WriteData(ctx context.Context, ownerID, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key(ownerID, id)] = bytes.Clone(data)
	return nil
}

func (s *Store) ReadData(ctx context.Context, ownerID, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key(ownerID, id)]
	if !ok {
		return nil, fragments.ErrFragmentNotFound
	}
	return bytes.Clone(data), nil
}

func (s *Store) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := ownerID + "/"
	ids := make([]string, 0)
	for k := range s.metadata {
		if strings.HasPrefix(k, prefix) {
			ids = append(ids, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(ownerID, id)
	delete(s.metadata, k)
	delete(s.data, k)
	return nil
}
