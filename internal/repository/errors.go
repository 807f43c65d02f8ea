package repository

import "errors"

// Errors returned by both storage backends.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameExists  = errors.New("username already exists")
	ErrEmailExists     = errors.New("email already exists")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrEventNotFound   = errors.New("event not found")
)
