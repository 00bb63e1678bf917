package engine_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wsepesi/lesson-solver/internal/scheduling/engine"
)

func TestResourceExhaustedError_IsResourceExhaustedAndWraps(t *testing.T) {
	err := engine.NewResourceExhaustedError(engine.ResourceExhaustedBacktracks, 1_000)
	assert.True(t, engine.IsResourceExhausted(err))
	assert.False(t, engine.IsInternal(err))
	assert.Contains(t, err.Error(), "backtracks")

	wrapped := fmt.Errorf("solve: %w", err)
	assert.True(t, engine.IsResourceExhausted(wrapped))
}

func TestInternalError_IsInternalAndUnwraps(t *testing.T) {
	cause := errors.New("student appears twice")
	err := engine.NewInternalError("assignment_double_booked", cause)
	assert.True(t, engine.IsInternal(err))
	assert.False(t, engine.IsResourceExhausted(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "assignment_double_booked")
}

func TestIsResourceExhausted_FalseForUnrelatedError(t *testing.T) {
	assert.False(t, engine.IsResourceExhausted(errors.New("unrelated")))
	assert.False(t, engine.IsInternal(errors.New("unrelated")))
}
