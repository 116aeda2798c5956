// Package errors defines the error kinds the FAT32 engine can raise.
//
// Kinds are modeled as sentinel string constants rather than an enum so that
// callers can compare with == or errors.Is, and so that a kind can be
// promoted to a richer DriverError (with a custom message and/or a wrapped
// cause) without losing its identity.
package errors

import (
	"fmt"
)

// DiskoError is a bare error kind. Comparing two DiskoError values with ==
// tells you whether they're the same kind of failure.
type DiskoError string

// Fatal at startup (before the shell is entered); recoverable afterward.
const ErrInvalidImage = DiskoError("boot sector malformed or image too small")

// Host I/O failures. Always aborts the current command.
const ErrIOError = DiskoError("I/O error against the image file")

// Path/directory-entry errors.
const ErrNotFound = DiskoError("no such file or directory")
const ErrExists = DiskoError("file or directory already exists")
const ErrIsADirectory = DiskoError("is a directory")
const ErrNotADirectory = DiskoError("not a directory")
const ErrNotEmpty = DiskoError("directory not empty")
const ErrNoSpace = DiskoError("no space left in directory or cluster chain")
const ErrNameTooLong = DiskoError("name exceeds 11 characters")
const ErrInvalidArgument = DiskoError("invalid argument")

// Open-file handle errors.
const ErrAlreadyOpen = DiskoError("file is already open")
const ErrNotOpen = DiskoError("file is not open")
const ErrTooManyOpen = DiskoError("too many open files")
const ErrBadMode = DiskoError("unrecognized open mode")
const ErrNotReadable = DiskoError("file not opened for reading")
const ErrNotWritable = DiskoError("file not opened for writing")
const ErrOffsetTooLarge = DiskoError("offset exceeds file size")

// Error implements the error interface.
func (e DiskoError) Error() string {
	return string(e)
}

// Is reports whether err carries this DiskoError kind, either directly or
// wrapped in a DriverError produced by WithMessage/WrapError.
func (e DiskoError) Is(err error) bool {
	if kind, ok := err.(DiskoError); ok {
		return kind == e
	}
	de, ok := err.(DriverError)
	if !ok {
		return false
	}
	return de.Kind() == e
}

// WithMessage promotes the kind to a DriverError carrying a custom message.
func (e DiskoError) WithMessage(message string) DriverError {
	return customDriverError{kind: e, message: message}
}

// WrapError promotes the kind to a DriverError wrapping a lower-level cause.
func (e DiskoError) WrapError(err error) DriverError {
	return customDriverError{
		kind:          e,
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}
