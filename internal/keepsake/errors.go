package keepsake

import "errors"

var (
	// ErrNotFound is returned when an id does not match any record.
	ErrNotFound = errors.New("record not found")

	// ErrParse is returned when stored or imported text is not valid JSON
	// for the expected shape.
	ErrParse = errors.New("invalid serialized data")

	// ErrStorageUnavailable is returned by a Backend that cannot be read or
	// written at all (disabled, closed, unreachable directory).
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrQuotaExceeded is returned by a Backend whose byte budget would be
	// exceeded by a write.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrKeyNotFound is returned by a Backend when a key is absent.
	ErrKeyNotFound = errors.New("key not found")

	// ErrMigration wraps any failure of a migration step.
	ErrMigration = errors.New("migration failed")

	// ErrUnknownKind is returned when a collection name does not map to a Kind.
	ErrUnknownKind = errors.New("unknown collection kind")

	// ErrInvalidDocument is returned when an import document lacks its
	// metadata or data sections.
	ErrInvalidDocument = errors.New("invalid import document")
)
