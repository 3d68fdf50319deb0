package auth

import "errors"

var (
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrUnauthorized   = errors.New("auth: unauthorized")
	ErrAlreadyExists  = errors.New("auth: already exists")
	ErrInvalidInput   = errors.New("auth: invalid input")
	ErrNotImplemented = errors.New("auth: not implemented")
)
