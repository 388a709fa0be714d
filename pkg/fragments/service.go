package fragments

import "context"

// Service is the main interface for fragment operations. All operations are
// scoped to an owner id produced by ResolveOwnerID; a fragment is never
// visible outside its owner's partition.
type Service interface {
	// CreateFragment validates and persists a new fragment together with
	// its data payload
	CreateFragment(ctx context.Context, req CreateFragmentRequest) (*Fragment, error)

	// GetFragment loads the metadata record at (ownerID, id). It does not
	// check that the paired data blob exists.
	GetFragment(ctx context.Context, ownerID, id string) (*Fragment, error)

	// GetFragmentData loads the data blob at (ownerID, id)
	GetFragmentData(ctx context.Context, ownerID, id string) ([]byte, error)

	// SetFragmentData replaces the fragment's data payload and updates its
	// size and updated timestamp
	SetFragmentData(ctx context.Context, ownerID, id string, data []byte) (*Fragment, error)

	// SaveFragment refreshes the updated timestamp and persists the
	// metadata record
	SaveFragment(ctx context.Context, f *Fragment) error

	// ListFragmentIDs returns the ids of all fragments owned by ownerID
	ListFragmentIDs(ctx context.Context, ownerID string) ([]string, error)

	// ListFragments returns the full metadata records of all fragments
	// owned by ownerID
	ListFragments(ctx context.Context, ownerID string) ([]*Fragment, error)

	// DeleteFragment removes the fragment's metadata and data. Deleting a
	// fragment that does not exist is not an error.
	DeleteFragment(ctx context.Context, ownerID, id string) error

	// ConvertFragment returns the fragment's data converted to targetType
	// along with the resulting media type
	ConvertFragment(ctx context.Context, ownerID, id, targetType string) ([]byte, string, error)
}

// CreateFragmentRequest contains parameters for creating a new fragment.
// Data may be empty; the blob record is written either way so metadata and
// data always exist as a pair.
type CreateFragmentRequest struct {
	OwnerID string
	Type    string
	Data    []byte
}
