// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Version ledger errors.
	ErrVersionConflict = errors.New("version conflict")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")

	// Storage-provider errors.
	ErrStorageNotConnected = errors.New("storage not connected")
	ErrReauthRequired      = errors.New("reauthorization required")
	ErrUpstream            = errors.New("upstream storage failure")
	ErrConfigMissing       = errors.New("storage app credentials not configured")
)
