package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	cause := errors.New("Table 'app.users' doesn't exist")

	assert.Equal(t, "[not_found] no row", New(ErrKindNotFound, "no row").Error())
	assert.Equal(t,
		"[query_failed] statement failed: Table 'app.users' doesn't exist",
		Wrap(ErrKindQueryFailed, "statement failed", cause).Error(),
	)
	assert.Equal(t, "[invalid_input] bad port \"x\"", Newf(ErrKindInvalidInput, "bad port %q", "x").Error())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"timeout", New(ErrKindTimeout, "x"), IsTimeout},
		{"connection", New(ErrKindConnectionFailed, "x"), IsConnectionFailed},
		{"query", New(ErrKindQueryFailed, "x"), IsQueryFailed},
		{"input", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"permission", New(ErrKindPermissionDenied, "x"), IsPermissionDenied},
		{"unsupported", New(ErrKindUnsupported, "x"), IsUnsupported},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrKindNotFound, "x")), IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
		})
	}

	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
}

func TestError_Unwrap(t *testing.T) {
	sentinel := errors.New("driver says no")
	err := Wrap(ErrKindQueryFailed, "statement failed", sentinel)

	assert.ErrorIs(t, err, sentinel)
}

func TestCause(t *testing.T) {
	assert.Equal(t, "", Cause(nil))
	assert.Equal(t, "driver text", Cause(Wrap(ErrKindQueryFailed, "statement failed", errors.New("driver text"))))
	assert.Equal(t, "handle is closed", Cause(New(ErrKindConnectionFailed, "handle is closed")))
	assert.Equal(t, "plain", Cause(errors.New("plain")))
}
