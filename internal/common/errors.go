// Package common defines shared constants and sentinel errors used across
// client and server layers of the forum. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Validation errors.
	ErrInvalidName  = errors.New("invalid username")
	ErrInvalidTitle = errors.New("invalid title")
	ErrInvalidIndex = errors.New("invalid message number")
	ErrEmptyBody    = errors.New("empty message")

	// Authorization errors.
	ErrInvalidSecret = errors.New("invalid password")
	ErrConflict      = errors.New("user already active")
	ErrNotAuthor     = errors.New("not the message author")
	ErrNotOwner      = errors.New("not the thread owner")

	// ErrNoResponse is the client-side terminal failure after the retry cap
	// is exhausted. It is distinct from any server-sent "ERROR:" string.
	ErrNoResponse = errors.New("no response")
)
