package taskstore

import (
	"time"

	"github.com/google/uuid"
)

// Record is the contract a storable type must satisfy. The engine never
// interprets the body beyond the two well-known top-level keys: the JSON
// serialization of the type MUST expose its identity as "id" and its update
// timestamp as "updated_at", because sync and merge read raw log lines
// without knowing the concrete type.
//
// Implement Record on a value type: the engine derives the collection name
// from a zero value of the type parameter, so pointer receivers on a nil
// pointer would panic.
type Record interface {
	// ID is the unique identity within the collection. Trimmed non-empty,
	// at most 256 characters.
	ID() string

	// UpdatedAt is the revision timestamp in milliseconds since the epoch.
	// Callers assign it and are responsible for keeping it non-decreasing
	// per identity; the greatest timestamp determines the effective revision.
	UpdatedAt() int64

	// CollectionName routes the record to its log file and cache rows.
	// Stable per type; must match [a-z_][a-z0-9_]*, at most 64 characters.
	CollectionName() string

	// IndexedFields projects the scalar fields available to List filters.
	// Return nil or an empty map for no indexes.
	IndexedFields() map[string]IndexValue
}

// IndexValue is a sealed scalar variant for indexed fields.
// Only Text, Int, and Bool implement it.
type IndexValue interface {
	indexValue()
}

// Text is a string-valued index field.
type Text string

func (Text) indexValue() {}

// Int is an integer-valued index field.
type Int int64

func (Int) indexValue() {}

// Bool is a boolean-valued index field.
type Bool bool

func (Bool) indexValue() {}

// collectionOf derives the collection name from the zero value of T.
func collectionOf[T Record]() string {
	var zero T
	return zero.CollectionName()
}

// tombstone is the serialized form of a deletion. It carries only the keys
// the engine itself understands, so every revision of every type competes on
// the same two fields.
type tombstone struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updated_at"`
	Deleted   bool   `json:"deleted"`
}

// NewID returns a time-ordered unique identity (UUIDv7).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NowMS returns the current wall-clock time in integer milliseconds, the
// unit of Record.UpdatedAt.
func NowMS() int64 {
	return time.Now().UnixMilli()
}
