package fragments

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// service implements the Service interface
type service struct {
	store Store
	now   func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithStore sets the storage backend for the service
func WithStore(store Store) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithClock overrides the time source. Intended for tests that need to
// observe timestamp movement deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		now: func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("store is required")
	}

	return s, nil
}

func (s *service) CreateFragment(ctx context.Context, req CreateFragmentRequest) (*Fragment, error) {
	now := s.now()
	f, err := NewFragment(FragmentParams{
		OwnerID: req.OwnerID,
		Type:    req.Type,
		Size:    int64(len(req.Data)),
		Created: now,
		Updated: now,
	})
	if err != nil {
		return nil, err
	}

	data := req.Data
	if data == nil {
		data = []byte{}
	}

	// Data first, metadata second: a crash in between leaves an orphan blob
	// that the next create overwrites, never a metadata record whose size
	// disagrees with a missing blob.
	if err := s.store.WriteData(ctx, f.OwnerID, f.ID, data); err != nil {
		return nil, err
	}
	if err := s.store.WriteMetadata(ctx, f); err != nil {
		return nil, err
	}

	return f, nil
}

func (s *service) GetFragment(ctx context.Context, ownerID, id string) (*Fragment, error) {
	return s.store.ReadMetadata(ctx, ownerID, id)
}

func (s *service) GetFragmentData(ctx context.Context, ownerID, id string) ([]byte, error) {
	return s.store.ReadData(ctx, ownerID, id)
}

// SetFragmentData replaces the fragment's payload. The data blob is written
// before the metadata record: after a crash between the two, the stored
// metadata can lag the blob but a successful call never leaves a size that
// disagrees with what GetFragmentData returns.
func (s *service) SetFragmentData(ctx context.Context, ownerID, id string, data []byte) (*Fragment, error) {
	if data == nil {
		return nil, &ValidationError{Field: "data", Reason: "must not be nil"}
	}

	f, err := s.store.ReadMetadata(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	f.Size = int64(len(data))
	f.Updated = s.now()

	if err := s.store.WriteData(ctx, ownerID, id, data); err != nil {
		return nil, err
	}
	if err := s.store.WriteMetadata(ctx, f); err != nil {
		return nil, err
	}

	return f, nil
}

func (s *service) SaveFragment(ctx context.Context, f *Fragment) error {
	if f == nil {
		return &ValidationError{Field: "fragment", Reason: "must not be nil"}
	}
	f.Updated = s.now()
	return s.store.WriteMetadata(ctx, f)
}

func (s *service) ListFragmentIDs(ctx context.Context, ownerID string) ([]string, error) {
	return s.store.ListIDs(ctx, ownerID)
}

// ListFragments expands each listed id into its metadata record. A record
// that fails to load is logged and skipped rather than aborting the whole
// listing, so the result may be shorter than ListFragmentIDs.
func (s *service) ListFragments(ctx context.Context, ownerID string) ([]*Fragment, error) {
	ids, err := s.store.ListIDs(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := make([]*Fragment, 0, len(ids))
	for _, id := range ids {
		f, err := s.store.ReadMetadata(ctx, ownerID, id)
		if err != nil {
			slog.Warn("skipping unreadable fragment metadata", "owner", ownerID, "id", id, "error", err)
			continue
		}
		result = append(result, f)
	}

	return result, nil
}

func (s *service) DeleteFragment(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, ownerID, id)
}

func (s *service) ConvertFragment(ctx context.Context, ownerID, id, targetType string) ([]byte, string, error) {
	f, err := s.store.ReadMetadata(ctx, ownerID, id)
	if err != nil {
		return nil, "", err
	}

	source := f.MimeType()
	if !CanConvert(source, targetType) {
		return nil, "", fmt.Errorf("%w: %s -> %s", ErrUnsupportedConversion, source, targetType)
	}

	data, err := s.store.ReadData(ctx, ownerID, id)
	if err != nil {
		return nil, "", err
	}

	converted, err := Convert(data, source, targetType)
	if err != nil {
		return nil, "", err
	}

	return converted, targetType, nil
}
