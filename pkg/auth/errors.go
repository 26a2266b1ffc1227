package auth

import "errors"

var (
	ErrMissingSigningKey = errors.New("auth: missing signing key")
	ErrMissingToken      = errors.New("auth: missing token")
	ErrInvalidToken      = errors.New("auth: invalid token")
	ErrExpiredToken      = errors.New("auth: token expired")
)
