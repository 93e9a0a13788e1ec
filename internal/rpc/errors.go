package rpc

import (
	"errors"

	"github.com/fsbridge/backend/internal/fs"
)

// Wire error codes. The negative range follows JSON-RPC convention; the
// -3200x block is the bridge's failure taxonomy.
const (
	CodeParse          = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602

	CodeInvalidLocation   = -32001
	CodeNotFound          = -32002
	CodeAlreadyExists     = -32003
	CodeNotADirectory     = -32004
	CodeDirectoryNotEmpty = -32005
	CodeEncoding          = -32006
	CodeUnsupported       = -32007
	CodeBackendIO         = -32008
)

// Error is the wire shape of a failed request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Kind returns a stable label for the error code, used as a metric label.
func (e *Error) Kind() string {
	switch e.Code {
	case CodeInvalidLocation:
		return "invalid_location"
	case CodeNotFound:
		return "not_found"
	case CodeAlreadyExists:
		return "already_exists"
	case CodeNotADirectory:
		return "not_a_directory"
	case CodeDirectoryNotEmpty:
		return "directory_not_empty"
	case CodeEncoding:
		return "encoding"
	case CodeUnsupported:
		return "unsupported"
	case CodeMethodNotFound:
		return "method_not_found"
	case CodeInvalidParams:
		return "invalid_params"
	default:
		return "backend_io"
	}
}

// Translate normalizes a backend failure into its wire error. Anything
// outside the closed taxonomy propagates opaquely as backend I/O.
func Translate(err error) *Error {
	var wireErr *Error
	if errors.As(err, &wireErr) {
		return wireErr
	}

	code := CodeBackendIO
	switch {
	case errors.Is(err, fs.ErrInvalidLocation):
		code = CodeInvalidLocation
	case errors.Is(err, fs.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, fs.ErrAlreadyExists):
		code = CodeAlreadyExists
	case errors.Is(err, fs.ErrNotADirectory):
		code = CodeNotADirectory
	case errors.Is(err, fs.ErrDirectoryNotEmpty):
		code = CodeDirectoryNotEmpty
	case errors.Is(err, fs.ErrEncoding):
		code = CodeEncoding
	case errors.Is(err, fs.ErrUnsupported):
		code = CodeUnsupported
	}
	return &Error{Code: code, Message: err.Error()}
}
