package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codedError struct{ code int }

func (e *codedError) Error() string { return "coded" }

func TestAsType(t *testing.T) {
	wrapped := Wrap(&codedError{code: 7}, "lookup failed")

	target, ok := AsType[*codedError](wrapped)
	require.True(t, ok)
	assert.Equal(t, 7, target.code)

	_, ok = AsType[*codedError](New("plain"))
	assert.False(t, ok)
}

func TestWrapKeepsIdentity(t *testing.T) {
	sentinel := New("sentinel")

	assert.True(t, Is(Wrapf(WithStack(sentinel), "step %d", 2), sentinel))
	assert.Equal(t, "step 2: sentinel", Wrapf(sentinel, "step %d", 2).Error())
}
