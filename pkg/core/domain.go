// Entry is the central entity of the domain.
package core

import (
	"fmt"
	"time"
)

// RootID is the sentinel identifier of the content store root.
// The root has no Entry record and is never created, renamed or removed
// through the entry lifecycle. The empty string is accepted as an alias.
const RootID = "root"

// IsRoot reports whether id refers to the content store root.
func IsRoot(id string) bool {
	return id == "" || id == RootID
}

// EntryType is the closed set of entry kinds.
// Directory is the only container type.
type EntryType uint8

const (
	TypeDirectory EntryType = iota + 1
	TypeNote
	TypeImage
	TypeVideo
	TypeAudio
)

// EntryTypes lists every valid EntryType.
var EntryTypes = []EntryType{TypeDirectory, TypeNote, TypeImage, TypeVideo, TypeAudio}

// String returns the wire name of the type (e.g. "directory").
func (t EntryType) String() string {
	switch t {
	case TypeDirectory:
		return "directory"
	case TypeNote:
		return "note"
	case TypeImage:
		return "image"
	case TypeVideo:
		return "video"
	case TypeAudio:
		return "audio"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseEntryType parses a wire name into an EntryType.
// "file" is accepted for records written before leaf kinds were split and maps to TypeNote.
func ParseEntryType(name string) (EntryType, error) {
	switch name {
	case "directory":
		return TypeDirectory, nil
	case "note", "file":
		return TypeNote, nil
	case "image":
		return TypeImage, nil
	case "video":
		return TypeVideo, nil
	case "audio":
		return TypeAudio, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEntryType, name)
	}
}

// IsContainer reports whether entries of this type hold children.
func (t EntryType) IsContainer() bool {
	return t == TypeDirectory
}

// IsText reports whether leaf content of this type is UTF-8 text.
func (t EntryType) IsText() bool {
	return t == TypeNote
}

// MarshalText implements encoding.TextMarshaler.
func (t EntryType) MarshalText() ([]byte, error) {
	switch t {
	case TypeDirectory, TypeNote, TypeImage, TypeVideo, TypeAudio:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEntryType, uint8(t))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *EntryType) UnmarshalText(text []byte) error {
	parsed, err := ParseEntryType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Entry is a metadata record describing one directory or typed leaf.
// ID is immutable once assigned and doubles as the content store key.
// Names are not unique.
type Entry struct {
	ID          string
	Name        string
	Icon        string
	Type        EntryType
	Parent      string
	Description string
	Created     time.Time
	Modified    time.Time
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Type.IsContainer()
}

// EntrySpec describes an entry to be created. The store assigns ID,
// Parent and timestamps.
type EntrySpec struct {
	Name        string
	Icon        string
	Type        EntryType
	Description string
}

// EntryPatch lists the mutable fields of an entry. Empty fields are left untouched.
type EntryPatch struct {
	Name        string
	Icon        string
	Description string
}

// Optional holds a value that may be absent.
// Batch lookups return one Optional per requested key.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether a value is held.
func (o Optional[T]) Present() bool {
	return o.ok
}

// Handle is an opaque reference to a node in a ContentStore.
// Ref is adapter-private; callers only compare and pass handles around.
type Handle struct {
	id  string
	ref string
	dir bool
}

// NewHandle is used by ContentStore implementations to mint handles.
func NewHandle(id, ref string, dir bool) Handle {
	return Handle{id: id, ref: ref, dir: dir}
}

// ID returns the entry ID naming the node (RootID for the root).
func (h Handle) ID() string { return h.id }

// Ref returns the adapter-private locator.
func (h Handle) Ref() string { return h.ref }

// IsDir reports whether the node is a directory.
func (h Handle) IsDir() bool { return h.dir }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h == Handle{} }

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change observed in the store.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String renders the event for logs and lifecycle sources.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
