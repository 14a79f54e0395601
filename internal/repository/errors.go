package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")

	ErrRefreshTokenMissing = errors.New("refresh token not found")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
