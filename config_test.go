package herald

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBufferSize(t *testing.T) {
	h := New(WithBufferSize(128))
	defer h.Shutdown()
	assert.Equal(t, 128, h.bufferSize)
}

func TestWithBufferSizeInvalid(t *testing.T) {
	h := New(WithBufferSize(0))
	defer h.Shutdown()
	assert.Equal(t, defaultBufferSize, h.bufferSize)

	h2 := New(WithBufferSize(-5))
	defer h2.Shutdown()
	assert.Equal(t, defaultBufferSize, h2.bufferSize)
}

func TestWithLogger(t *testing.T) {
	h := New(WithLogger(slogt.New(t)))
	defer h.Shutdown()

	ch := Channel("test.config.logger")
	r := &recorder{}

	sub, err := h.Register(ch, r)
	require.NoError(t, err)
	require.NoError(t, h.Notify(ch, "logged"))
	sub.Release()

	assert.Equal(t, 1, r.count())
}

func TestWithLoggerNil(t *testing.T) {
	h := New(WithLogger(nil))
	defer h.Shutdown()

	// The discarding default stays in place.
	require.NotNil(t, h.log)
	require.NoError(t, h.Notify("test.config.logger.nil"))
}

func TestConfigureStoresOptions(t *testing.T) {
	// Configure only affects the default instance before its creation;
	// here we just verify the options are recorded for it.
	Configure(WithBufferSize(32))
	defaultOptMu.Lock()
	n := len(defaultOptions)
	defaultOptMu.Unlock()
	assert.Equal(t, 1, n)

	Configure()
	defaultOptMu.Lock()
	n = len(defaultOptions)
	defaultOptMu.Unlock()
	assert.Equal(t, 0, n)
}
