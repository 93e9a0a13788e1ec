package fs

import (
	"errors"
	iofs "io/fs"
	"syscall"
)

// Failure taxonomy. Every backend error surfaced to a client is classified
// into exactly one of these kinds; anything unrecognized propagates as
// opaque backend I/O.
var (
	ErrInvalidLocation   = errors.New("invalid location")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotADirectory     = errors.New("not a directory")
	ErrDirectoryNotEmpty = errors.New("directory not empty")
	ErrEncoding          = errors.New("malformed encoding")
	ErrUnsupported       = errors.New("unsupported operation")
)

// Classify maps lower-level filesystem errors onto the taxonomy so that
// resolvers built on os/io/fs report uniform failure kinds. Errors that are
// already taxonomy members pass through; everything else is returned as-is
// (opaque backend I/O).
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidLocation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrNotADirectory),
		errors.Is(err, ErrDirectoryNotEmpty),
		errors.Is(err, ErrEncoding),
		errors.Is(err, ErrUnsupported):
		return err
	case errors.Is(err, iofs.ErrNotExist):
		return joinKind(ErrNotFound, err)
	case errors.Is(err, iofs.ErrExist):
		return joinKind(ErrAlreadyExists, err)
	case errors.Is(err, syscall.ENOTDIR):
		return joinKind(ErrNotADirectory, err)
	case errors.Is(err, syscall.ENOTEMPTY):
		return joinKind(ErrDirectoryNotEmpty, err)
	default:
		return err
	}
}

func joinKind(kind, cause error) error {
	return &kindError{kind: kind, cause: cause}
}

type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.kind.Error() + ": " + e.cause.Error() }

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.cause }
