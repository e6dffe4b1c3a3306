package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeStorage, "query drivers")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, HasCode(err, CodeStorage))
	assert.False(t, HasCode(err, CodeConflict))
}

func TestHasCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("register: %w", New(CodeConflict, "email or national id already exists"))
	assert.True(t, HasCode(err, CodeConflict))
	assert.Equal(t, CodeConflict, CodeOf(err))
}

func TestMessageOfUnknownError(t *testing.T) {
	assert.Equal(t, "internal error", MessageOf(errors.New("pq: deadlock detected")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:     http.StatusBadRequest,
		CodeConflict:       http.StatusConflict,
		CodeUnauthorized:   http.StatusUnauthorized,
		CodeBadCredentials: http.StatusUnauthorized,
		CodeForbidden:      http.StatusForbidden,
		CodeNotFound:       http.StatusNotFound,
		CodeStorage:        http.StatusInternalServerError,
		Code("mystery"):    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
