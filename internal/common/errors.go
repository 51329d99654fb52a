// Package common defines shared sentinel errors used across the server
// layers of vaultkeeper. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Cache/coordinator lifecycle errors.
	ErrClosed = errors.New("data source already closed")

	// Vault session errors. ErrAlreadyOpen is returned for every denied open,
	// whatever the real reason, so viewer identity is never leaked.
	ErrAlreadyOpen = errors.New("vault already open")

	// ErrLimitReached signals that an owner's vault allowance is exhausted.
	ErrLimitReached = errors.New("vault limit reached")
)
