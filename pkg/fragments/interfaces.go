package fragments

import "context"

// Store defines the interface for storage backends. Each fragment occupies
// two records under the same (ownerID, id) key: a structured metadata record
// and a raw data blob. Implementations partition the keyspace by ownerID.
//
// ReadMetadata and ReadData distinguish absence from transport failure:
// absence surfaces as ErrFragmentNotFound, I/O failure as *StorageError.
type Store interface {
	// WriteMetadata creates or overwrites the metadata record for f
	WriteMetadata(ctx context.Context, f *Fragment) error

	// ReadMetadata returns the metadata record at (ownerID, id), or
	// ErrFragmentNotFound if no record exists
	ReadMetadata(ctx context.Context, ownerID, id string) (*Fragment, error)

	// WriteData creates or overwrites the raw data blob at (ownerID, id)
	WriteData(ctx context.Context, ownerID, id string, data []byte) error

	// ReadData returns the raw data blob at (ownerID, id), or
	// ErrFragmentNotFound if no blob exists
	ReadData(ctx context.Context, ownerID, id string) ([]byte, error)

	// ListIDs returns the fragment ids stored under ownerID. An owner with
	// no fragments yields an empty slice, not an error.
	ListIDs(ctx context.Context, ownerID string) ([]string, error)

	// Delete removes both the metadata record and the data blob. It is
	// tolerant of partial or total absence.
	Delete(ctx context.Context, ownerID, id string) error
}
