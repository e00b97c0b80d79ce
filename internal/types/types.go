// Package types defines the core domain entities shared across the csync
// server: blobs, metadata projections, users and change events.
package types

import (
	"encoding/json"
	"fmt"
)

// BlobType identifies the kind of payload stored in a Blob.
type BlobType int

const (
	// BlobTypeText is a plain UTF-8 clipboard payload.
	BlobTypeText BlobType = iota
	// BlobTypeImage is a PNG clipboard payload.
	BlobTypeImage
	// BlobTypeFile is an arbitrary file with a name and mode.
	BlobTypeFile
)

// String renders the wire/header representation of a BlobType.
func (t BlobType) String() string {
	switch t {
	case BlobTypeText:
		return "text"
	case BlobTypeImage:
		return "image"
	case BlobTypeFile:
		return "file"
	default:
		return "unknown"
	}
}

// ParseBlobType parses the header/query representation of a BlobType.
func ParseBlobType(s string) (BlobType, bool) {
	switch s {
	case "text":
		return BlobTypeText, true
	case "image":
		return BlobTypeImage, true
	case "file":
		return BlobTypeFile, true
	default:
		return 0, false
	}
}

// Blob is the immutable binary payload submitted by a client, including its
// raw bytes. See Metadata for the projection used in list/query responses.
type Blob struct {
	ID         uint64
	Data       []byte
	BlobType   BlobType
	SHA256     string
	Size       uint64
	FileName   string
	FileMode   uint32
	Owner      string
	Pin        bool
	Summary    string
	UpdateTime uint64
	RecycleTime uint64
}

// Metadata is a Blob projection without the payload bytes, returned by all
// list/query endpoints.
type Metadata struct {
	ID          uint64 `json:"id"`
	BlobType    BlobType `json:"blob_type"`
	SHA256      string `json:"sha256"`
	Size        uint64 `json:"size"`
	FileName    string `json:"file_name,omitempty"`
	FileMode    uint32 `json:"file_mode,omitempty"`
	Owner       string `json:"owner"`
	Pin         bool   `json:"pin"`
	Summary     string `json:"summary"`
	UpdateTime  uint64 `json:"update_time"`
	RecycleTime uint64 `json:"recycle_time"`
}

// User is an authenticated principal. The store does not fill in
// PasswordHash/Salt (credentials are read through store.UserCredentials),
// and both are excluded from JSON so they never reach clients.
type User struct {
	Name         string `json:"name"`
	Admin        bool   `json:"admin"`
	UpdateTime   uint64 `json:"update_time"`
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
}

// EventType identifies the kind of mutation an Event describes.
type EventType int

const (
	EventPut EventType = iota
	EventUpdate
	EventDelete
)

// String renders the wire representation of an EventType.
func (t EventType) String() string {
	switch t {
	case EventPut:
		return "put"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalJSON renders EventType as its lowercase string form.
func (t EventType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON parses the lowercase string form written by MarshalJSON.
func (t *EventType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "put":
		*t = EventPut
	case "update":
		*t = EventUpdate
	case "delete":
		*t = EventDelete
	default:
		return fmt.Errorf("unknown event_type %q", s)
	}
	return nil
}

// Event is a server-originated change notification. Items share EventType
// and, before dispatch, may span multiple owners; the dispatcher splits a
// multi-owner Event into single-owner sub-events before delivery. ID is
// assigned once per publish and carried unchanged into every sub-event
// split from it, so a subscriber can de-duplicate a redelivered event.
type Event struct {
	ID        string     `json:"id"`
	EventType EventType  `json:"event_type"`
	Items     []Metadata `json:"items"`
}

// Query carries the common filters/pagination shared by blob and user list
// operations.
type Query struct {
	Offset       uint64
	Limit        uint64
	Search       string
	HasSearch    bool
	UpdateAfter  uint64
	HasAfter     bool
	UpdateBefore uint64
	HasBefore    bool
}

// DefaultLimit is the Limit the HTTP request decoding applies when a list
// request has no limit parameter. A Query that reaches the store with a zero
// Limit is unbounded.
const DefaultLimit = 10

// MetadataQuery selects blobs for GetMetadatas/CountMetadatas.
type MetadataQuery struct {
	ID             uint64
	HasID          bool
	Owner          string
	HasOwner       bool
	SHA256         string
	HasSHA256      bool
	RecycleBefore  uint64
	HasRecycleBefore bool
	Query          Query
}

// UserQuery selects users for GetUsers/CountUsers.
type UserQuery struct {
	Name    string
	HasName bool
	Query   Query
}
