package fragments

import (
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Media types accepted for storage. The set is fixed; a fragment's type is
// chosen at creation and never changes.
const (
	TypePlain    = "text/plain"
	TypeMarkdown = "text/markdown"
	TypeHTML     = "text/html"
	TypeCSV      = "text/csv"
	TypeJSON     = "application/json"
	TypeYAML     = "application/yaml"
	TypePNG      = "image/png"
	TypeJPEG     = "image/jpeg"
	TypeWebP     = "image/webp"
	TypeGIF      = "image/gif"
)

var supportedTypes = map[string]struct{}{
	TypePlain:    {},
	TypeMarkdown: {},
	TypeHTML:     {},
	TypeCSV:      {},
	TypeJSON:     {},
	TypeYAML:     {},
	TypePNG:      {},
	TypeJPEG:     {},
	TypeWebP:     {},
	TypeGIF:      {},
}

// Fragment is the metadata record for one stored unit of owner-scoped,
// typed binary content. The paired data blob lives in the same Store under
// the same (OwnerID, ID) key.
type Fragment struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"ownerId"`
	Type    string    `json:"type"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// FragmentParams contains parameters for constructing a Fragment. Only
// OwnerID and Type are required; the rest default to a fresh id, the current
// time, and size zero.
type FragmentParams struct {
	ID      string
	OwnerID string
	Type    string
	Size    int64
	Created time.Time
	Updated time.Time
}

// NewFragment validates params and constructs a Fragment. It has no side
// effects; persistence is a separate step through a Service or Store.
func NewFragment(params FragmentParams) (*Fragment, error) {
	if params.OwnerID == "" {
		return nil, &ValidationError{Field: "ownerId", Reason: "must not be empty"}
	}
	if params.Type == "" {
		return nil, &ValidationError{Field: "type", Reason: "must not be empty"}
	}
	if !IsSupportedType(params.Type) {
		return nil, &ValidationError{Field: "type", Reason: "unsupported media type " + params.Type}
	}
	if params.Size < 0 {
		return nil, &ValidationError{Field: "size", Reason: "must be non-negative"}
	}

	now := time.Now().UTC()
	f := &Fragment{
		ID:      params.ID,
		OwnerID: params.OwnerID,
		Type:    params.Type,
		Size:    params.Size,
		Created: params.Created,
		Updated: params.Updated,
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Created.IsZero() {
		f.Created = now
	}
	if f.Updated.IsZero() {
		f.Updated = now
	}

	return f, nil
}

// IsSupportedType reports whether value parses as a media type in the
// supported set. Parameters such as charset are stripped before the check.
// Unparsable input returns false, never an error.
func IsSupportedType(value string) bool {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	_, ok := supportedTypes[mediaType]
	return ok
}

// MimeType returns the fragment's media type without parameters, e.g.
// "text/plain" for "text/plain; charset=utf-8".
func (f *Fragment) MimeType() string {
	mediaType, _, err := mime.ParseMediaType(f.Type)
	if err != nil {
		return f.Type
	}
	return mediaType
}

// IsText reports whether the fragment holds a text media type.
func (f *Fragment) IsText() bool {
	return strings.HasPrefix(f.MimeType(), "text/")
}

// Formats returns the media types this fragment can be converted into,
// including its own type.
func (f *Fragment) Formats() []string {
	return Formats(f.MimeType())
}
