package catalog

import (
	"github.com/sony/gobreaker/v2"

	"github.com/kailas-cloud/mscatalog/internal/domain"
	"github.com/kailas-cloud/mscatalog/internal/engine"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnsupportedFieldType = domain.ErrUnsupportedFieldType
	ErrInvalidFieldName     = domain.ErrInvalidFieldName
	ErrInvalidFieldValue    = domain.ErrInvalidFieldValue
	ErrUnparsableDatetime   = domain.ErrUnparsableDatetime
	ErrMalformedFilter      = domain.ErrMalformedFilter
	ErrTransport            = domain.ErrTransport
	ErrInvalidConfig        = domain.ErrInvalidConfig
	ErrNotFound             = domain.ErrNotFound
	ErrPushInProgress       = domain.ErrPushInProgress
	ErrCircuitOpen          = gobreaker.ErrOpenState
)

// TransportError carries the engine operation and HTTP status of a failed request.
// Use errors.As() to inspect it.
type TransportError = engine.TransportError
