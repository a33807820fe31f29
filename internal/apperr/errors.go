// Package apperr defines the error categories shared by every storage operation.
package apperr

import "errors"

var (
	// ErrValidation marks a malformed or forbidden id, path, or empty required field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an absent note, notebook, template, attachment, or version.
	ErrNotFound = errors.New("not found")
	// ErrIO marks a filesystem failure on read, write, remove, or copy.
	ErrIO = errors.New("i/o failure")
	// ErrSerialization marks malformed JSON in a file that is expected to parse.
	ErrSerialization = errors.New("malformed data")
	// ErrConflict marks a stale If-Match precondition on the command shim.
	ErrConflict = errors.New("conflict")
)
