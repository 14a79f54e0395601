package auth

import "errors"

// Callers only ever see these two; the reason behind an Unauthorized is
// logged, never returned.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
)
