// Package fragments provides owner-scoped storage of typed binary fragments
// with pluggable storage backends and type-negotiated format conversion.
//
// It exposes a single Service interface that orchestrates fragment creation,
// data upload/download, listing, deletion, and conversion between supported
// media types. Implementations of the Store interface (memory, filesystem,
// S3) are provided under the storage subpackages; a deployment selects one
// at startup through the config package.
//
// A fragment is a pair of records addressed by the same (owner, id) key: a
// structured metadata record (id, owner, timestamps, type, size) and a raw
// byte blob. The two are written and deleted together so that neither can
// exist without the other.
package fragments
