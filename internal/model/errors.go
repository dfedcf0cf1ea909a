package model

import "errors"

var (
	// Trash related errors
	ErrTrashItemNotFound  = errors.New("trash item not found")
	ErrTrashEntryConsumed = errors.New("trash entry already consumed")
	ErrNoRestoreTargets   = errors.New("no restore targets found")

	// Entity related errors
	ErrEntityNotFound    = errors.New("entity not found")
	ErrUnknownEntityType = errors.New("unknown entity type")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
