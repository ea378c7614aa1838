package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Message(t *testing.T) {
	err := WrapExternal("failed to fetch user profile", io.ErrUnexpectedEOF)
	assert.Equal(t, "failed to fetch user profile: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Equal(t, "failed to fetch user profile", External("failed to fetch user profile").Error())
}

func TestGetType(t *testing.T) {
	assert.Equal(t, ErrorTypeExternal, GetType(WrapExternal("x", nil)))
	assert.Equal(t, ErrorTypeParse, GetType(WrapParse("x", io.EOF)))
	assert.Equal(t, ErrorTypeNotFound, GetType(NotFoundf("account %d", 7)))

	wrapped := fmt.Errorf("callback: %w", WrapParse("bad body", io.EOF))
	assert.Equal(t, ErrorTypeParse, GetType(wrapped))

	assert.Equal(t, ErrorTypeInternal, GetType(errors.New("plain")))
}
