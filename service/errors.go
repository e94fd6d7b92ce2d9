package service

import "errors"

// Failure kinds surfaced by the auth flows. Every failure is terminal
// for the current request; nothing is retried or swallowed. The HTTP
// layer decides status-code mapping.
var (
	ErrMissingField       = errors.New("main field is missing or empty")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyTokens      = errors.New("token limit exceeded")
	ErrMissingToken       = errors.New("please provide access token")
	ErrInvalidToken       = errors.New("token is not valid")
	ErrOwnerNotFound      = errors.New("token owner not found")
)
