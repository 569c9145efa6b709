// Package testtools holds the small assertion vocabulary shared by
// the tests of this repository.
package testtools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AssertNoErr(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

// AssertErrContains fails the test immediately if err is nil
// or if its message lacks any of the given substrings.
func AssertErrContains(t *testing.T, err error, substrs ...string) {
	t.Helper()
	require.Error(t, err)

	msg := err.Error()
	for _, substr := range substrs {
		require.Contains(t, msg, substr)
	}
}

func AssertEqual(t *testing.T, got any, expected any) {
	t.Helper()
	assert.Equal(t, expected, got)
}

// AssertEqualNow is like AssertEqual but stops the test on mismatch,
// useful when the following assertions depend on this one.
func AssertEqualNow(t *testing.T, got any, expected any) {
	t.Helper()
	require.Equal(t, expected, got)
}
