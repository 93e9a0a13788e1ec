package rpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fsbridge/backend/internal/fs"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fs.ErrInvalidLocation, CodeInvalidLocation},
		{fs.ErrNotFound, CodeNotFound},
		{fs.ErrAlreadyExists, CodeAlreadyExists},
		{fs.ErrNotADirectory, CodeNotADirectory},
		{fs.ErrDirectoryNotEmpty, CodeDirectoryNotEmpty},
		{fs.ErrEncoding, CodeEncoding},
		{fs.ErrUnsupported, CodeUnsupported},
		{errors.New("disk on fire"), CodeBackendIO},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, Translate(tc.err).Code, "%v", tc.err)
	}
}

func TestTranslateUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("stat mem:///x: %w", fs.ErrNotFound)
	wireErr := Translate(err)
	assert.Equal(t, CodeNotFound, wireErr.Code)
	assert.Contains(t, wireErr.Message, "mem:///x")
}

func TestTranslatePassesThroughWireErrors(t *testing.T) {
	orig := &Error{Code: CodeInvalidParams, Message: "missing uri"}
	assert.Same(t, orig, Translate(orig))
}

func TestKindLabels(t *testing.T) {
	assert.Equal(t, "not_found", (&Error{Code: CodeNotFound}).Kind())
	assert.Equal(t, "backend_io", (&Error{Code: CodeBackendIO}).Kind())
	assert.Equal(t, "backend_io", (&Error{Code: -1}).Kind())
}
