package auth

import "errors"

// Verification failures collapse into ErrInvalidToken before they reach a
// handler. A caller probing the API learns nothing about which check failed.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrDomainNotAllowed = errors.New("email domain not allowed")
	ErrAccountDisabled  = errors.New("account is deactivated")
)
