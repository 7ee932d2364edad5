package handlers

import "errors"

// ErrInvalidRange marks a malformed or unsatisfiable Range header.
var ErrInvalidRange = errors.New("invalid range")

// Plain-text bodies returned by the delivery endpoints.
const (
	msgNotFound          = "❌ File not found or expired"
	msgInvalidIdentifier = "Invalid file identifier"
	msgInvalidRange      = "Requested range not satisfiable"
)
