package fatal

import (
	"bytes"
	"testing"

	"github.com/joshuapare/corekit/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_PassesThrough(t *testing.T) {
	f := Catch(func() { Check(true, "never %d", 1) })
	assert.Nil(t, f)
}

func TestCheck_FailureCarriesMessageAndStack(t *testing.T) {
	f := Catch(func() { Check(false, "leak of %d bytes", 24) })
	require.NotNil(t, f)
	assert.Equal(t, "leak of 24 bytes", f.Msg)
	assert.Contains(t, f.Stack, "fatal_test.go")
	assert.EqualError(t, f, "assertion failed: leak of 24 bytes")
}

func TestFailf_Logs(t *testing.T) {
	var out bytes.Buffer
	logger.Init(logger.Options{Enabled: true, Output: &out})
	t.Cleanup(func() { logger.Init(logger.Options{}) })

	require.NotNil(t, Catch(func() { Failf("Out of memory") }))
	assert.Contains(t, out.String(), "Out of memory")
	assert.Contains(t, out.String(), "stack=")
}

func TestCatch_PropagatesForeignPanics(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		Catch(func() { panic("boom") })
	})
}
