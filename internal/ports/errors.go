package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these so callers can
// branch with errors.Is without knowing which adapter they talk to.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Ledger Errors
	ErrDuplicateTrade  = errors.New("a trade with this identifier is already recorded")
	ErrInvalidPrice    = errors.New("price value is not representable")
	ErrInvalidReason   = errors.New("close reason is not one of the allowed values")
	ErrNotFound        = errors.New("no trade recorded under this identifier")
	ErrEmptyCorrection = errors.New("correction contains no fields to change")

	// Storage Errors
	ErrStorageUnavailable = errors.New("ledger storage cannot be reached or wrote unsuccessfully")
	ErrQueryFailed        = errors.New("ledger query failed")
	ErrMigrationFailed    = errors.New("schema migration failed")

	// Feed Errors
	ErrMalformedEvent = errors.New("event payload cannot be decoded")

	// Notification Errors
	ErrNotifyFailed = errors.New("notification delivery failed")
)
