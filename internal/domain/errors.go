package domain

import "errors"

var (
	// ErrUnsupportedFieldType signals a field type with no engine representation.
	ErrUnsupportedFieldType = errors.New("unsupported field type")
	// ErrInvalidFieldName signals a field without a name.
	ErrInvalidFieldName = errors.New("invalid field name")
	// ErrInvalidFieldValue signals a value that cannot be coerced to its declared type.
	ErrInvalidFieldValue = errors.New("invalid field value")
	// ErrUnparsableDatetime signals a datetime value that is not a recognizable date.
	ErrUnparsableDatetime = errors.New("unparsable datetime")
	// ErrMalformedFilter signals a filter entry without a field.
	ErrMalformedFilter = errors.New("malformed filter spec")
	// ErrTransport signals a network or protocol failure talking to the engine.
	ErrTransport = errors.New("engine transport error")
	// ErrInvalidConfig signals an unusable configuration value.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrPushInProgress signals a second concurrent push on the same pusher.
	ErrPushInProgress = errors.New("push already in progress")
)

// KeyPrefix is the key namespace for everything mscatalog stores in Redis.
const KeyPrefix = "mscatalog:"
