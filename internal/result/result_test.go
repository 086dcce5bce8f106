package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultKinds(t *testing.T) {
	ok := Ok(3)
	assert.True(t, ok.IsOK())
	assert.Equal(t, 3, ok.Value())
	assert.Equal(t, "ok", ok.Kind().String())

	degraded := Degraded([]string{}, "store unavailable: %s", "timeout")
	assert.True(t, degraded.IsDegraded())
	assert.Equal(t, "store unavailable: timeout", degraded.Reason())
	assert.NotNil(t, degraded.Value())
	assert.NoError(t, degraded.Err())

	boom := errors.New("boom")
	fatal := Fatal[int](boom)
	assert.True(t, fatal.IsFatal())
	_, err := fatal.Unwrap()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "fatal", fatal.Kind().String())
}
