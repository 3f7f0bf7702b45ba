package taskstore

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates a bad identity, collection name, or field name.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeIO indicates a filesystem open/read/write/lock/rename/fsync failure.
	ErrCodeIO ErrorCode = "IO"

	// ErrCodeSerialize indicates the record body could not be encoded.
	ErrCodeSerialize ErrorCode = "SERIALIZE"

	// ErrCodeDeserialize indicates a stored body could not be decoded.
	ErrCodeDeserialize ErrorCode = "DESERIALIZE"

	// ErrCodeCache indicates a schema, statement, or constraint failure in the
	// embedded database. Recoverable after a successful append: the log is
	// authoritative and the next sync reconciles.
	ErrCodeCache ErrorCode = "CACHE"

	// ErrCodeSchema indicates the .version marker names an unsupported
	// schema generation.
	ErrCodeSchema ErrorCode = "SCHEMA"
)

// Error is a store error with its category and the collection/identity it
// concerns, when known.
type Error struct {
	Code       ErrorCode
	Collection string
	ID         string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Collection != "" {
		msg += fmt.Sprintf(" (collection=%s", e.Collection)
		if e.ID != "" {
			msg += fmt.Sprintf(", id=%s", e.ID)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, collection, id, message string, err error) *Error {
	return &Error{Code: code, Collection: collection, ID: id, Message: message, Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsValidation reports whether err is a validation error.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsIO reports whether err is a filesystem error.
func IsIO(err error) bool { return hasCode(err, ErrCodeIO) }

// IsSerialize reports whether err is a body encoding error.
func IsSerialize(err error) bool { return hasCode(err, ErrCodeSerialize) }

// IsDeserialize reports whether err is a body decoding error.
func IsDeserialize(err error) bool { return hasCode(err, ErrCodeDeserialize) }

// IsCache reports whether err is an embedded database error. A cache error
// after a successful append leaves the log authoritative; Sync reconciles.
func IsCache(err error) bool { return hasCode(err, ErrCodeCache) }

// IsSchema reports whether err is an unsupported schema generation error.
func IsSchema(err error) bool { return hasCode(err, ErrCodeSchema) }
