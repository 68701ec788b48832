package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeDuplicateHash, "hash already registered")
	assert.True(t, HasCode(err, CodeDuplicateHash))
	assert.False(t, HasCode(err, CodeNotFound))

	wrapped := fmt.Errorf("service: %w", err)
	assert.True(t, HasCode(wrapped, CodeDuplicateHash))

	assert.False(t, HasCode(errors.New("plain"), CodeDuplicateHash))
	assert.False(t, HasCode(nil, CodeDuplicateHash))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "store failed")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized:       http.StatusForbidden,
		CodeNotOwnerOrApproved: http.StatusForbidden,
		CodeZeroHash:           http.StatusUnprocessableEntity,
		CodeDuplicateHash:      http.StatusConflict,
		CodeAlreadyConfirmed:   http.StatusConflict,
		CodeNotFound:           http.StatusNotFound,
		CodeOutOfRange:         http.StatusRequestedRangeNotSatisfiable,
		CodeUnsafeRecipient:    http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
