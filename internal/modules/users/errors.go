package users

import "errors"

var (
	ErrLoginIDTaken = errors.New("user id already exists")
	ErrEmailTaken   = errors.New("user email already exists")
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError lists the fields that failed validation and their rule.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
