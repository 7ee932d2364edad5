package media

import "errors"

var (
	// ErrOversizedInput is returned when content exceeds the admission ceiling.
	ErrOversizedInput = errors.New("media: content exceeds size limit")
	// ErrNotFound is returned for identifiers that are unknown, deleted or expired.
	ErrNotFound = errors.New("media: object not found")
	// ErrMalformedIdentifier is returned for empty or unsafe identifiers.
	ErrMalformedIdentifier = errors.New("media: malformed identifier")
)
