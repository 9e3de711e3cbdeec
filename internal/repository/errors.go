package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task does not exist for the given owner
	ErrTaskNotFound = errors.New("task not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("email already registered")
)
