package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassForType(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected Class
	}{
		{ErrorTypeNetwork, ClassRetryable},
		{ErrorTypeTimeout, ClassRetryable},
		{ErrorTypeHTTPStatus, ClassRetryable},
		{ErrorTypeDecode, ClassRetryable},
		{ErrorTypeAccessDenied, ClassTerminal},
		{ErrorTypeNotFound, ClassTerminal},
		{ErrorTypeResolution, ClassTerminal},
		{ErrorTypeParsing, ClassFatal},
		{ErrorTypeConfig, ClassFatal},
		{ErrorTypeUnknown, ClassFatal},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassForType(tt.errType))
		})
	}
}

func TestFromStatusCode(t *testing.T) {
	assert.True(t, IsTerminal(FromStatusCode(403, "http://x")))
	assert.True(t, Is(FromStatusCode(403, "http://x"), ErrorTypeAccessDenied))
	assert.True(t, Is(FromStatusCode(404, "http://x"), ErrorTypeNotFound))
	assert.True(t, IsRetryable(FromStatusCode(500, "http://x")))
	assert.True(t, IsRetryable(FromStatusCode(429, "http://x")))
}

func TestClassOfWrapped(t *testing.T) {
	inner := Wrap(ErrorTypeNetwork, io.ErrUnexpectedEOF, "reading body")
	outer := fmt.Errorf("attempt failed: %w", inner)

	assert.True(t, IsRetryable(outer))
	assert.ErrorIs(t, outer, io.ErrUnexpectedEOF)
	assert.Equal(t, ClassFatal, ClassOf(io.EOF))
	assert.False(t, IsRetryable(nil))
}

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeHTTPStatus, 502, "bad gateway")
	assert.Equal(t, "http_status error (code 502): bad gateway", err.Error())

	err = New(ErrorTypeResolution, 0, "no url")
	assert.Equal(t, "resolution error: no url", err.Error())
}
