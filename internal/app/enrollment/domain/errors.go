package domain

import "errors"

var (
	ErrInvalidEvent       = errors.New("invalid webhook event")
	ErrDuplicateEvent     = errors.New("event already applied")
	ErrCASConflict        = errors.New("ledger value changed concurrently")
	ErrTransientStore     = errors.New("transient ledger store failure")
	ErrStoreUnavailable   = errors.New("ledger store unavailable")
	ErrConfiguration      = errors.New("invalid configuration")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnknownAdminAction = errors.New("unknown admin action")
)
