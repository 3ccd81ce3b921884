package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Guliveer/infoboard/agent/internal/errors"
)

func TestErrorMessage(t *testing.T) {
	err := errors.New(errors.ErrNotConnected)
	assert.Equal(t, "Link is not connected", err.Error())

	wrapped := errors.Wrap(errors.ErrOpenFailure, stderrors.New("access denied"))
	assert.Equal(t, "Failed to open serial endpoint: access denied", wrapped.Error())

	custom := errors.Wrapf(errors.ErrOpenFailure, stderrors.New("busy"), "open %s", "COM4")
	assert.Equal(t, "open COM4: busy", custom.Error())
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"nil", nil, ""},
		{"plain", stderrors.New("x"), ""},
		{"direct", errors.New(errors.ErrWriteFailure), errors.ErrWriteFailure},
		{"fmt wrapped", fmt.Errorf("tick: %w", errors.New(errors.ErrTimeout)), errors.ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.CodeOf(tt.err))
		})
	}
}

func TestHasCodeLooksThroughChain(t *testing.T) {
	inner := errors.New(errors.ErrTimeout)
	outer := errors.Wrap(errors.ErrWriteFailure, inner)

	assert.True(t, errors.HasCode(outer, errors.ErrWriteFailure))
	assert.True(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(outer, errors.ErrOpenFailure))
	assert.True(t, errors.Is(outer, errors.New(errors.ErrTimeout)))
}
