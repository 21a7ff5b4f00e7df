package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "boom"))
	})

	t.Run("keeps cause reachable", func(t *testing.T) {
		cause := errors.New("db down")
		err := Wrap(cause, CodeInternal, "failed to load case")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to load case: db down", err.Error())
	})
}

func TestHasCode(t *testing.T) {
	inner := New(CodeConflict, "case number taken")
	outer := Wrap(inner, CodeGenerationExhausted, "could not mint case number")

	assert.True(t, HasCode(outer, CodeGenerationExhausted))
	assert.True(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.True(t, HasCode(fmt.Errorf("ctx: %w", inner), CodeConflict))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "case not found")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeValidation, CodeOf(fmt.Errorf("wrapped: %w", New(CodeValidation, "x"))))
}
