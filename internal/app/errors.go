package app

import "errors"

var (
	// ErrCannotBanOwner rejects a ban targeting the configured owner.
	ErrCannotBanOwner = errors.New("owner cannot be banned")

	ErrAlreadyBanned = errors.New("user is already banned")
	ErrNotBanned     = errors.New("user is not banned")
)
