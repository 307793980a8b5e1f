package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Cleanup(UseNop)

	t.Run("builds with valid level", func(t *testing.T) {
		require.NoError(t, Initialize(Options{Level: "debug"}))
		assert.NotNil(t, Get(CategoryController))
	})

	t.Run("rejects bad level", func(t *testing.T) {
		assert.Error(t, Initialize(Options{Level: "chatty"}))
	})

	t.Run("disabled categories get nop loggers", func(t *testing.T) {
		require.NoError(t, Initialize(Options{
			Categories: map[string]bool{"http": false},
		}))
		assert.False(t, Get(CategoryHTTP).Core().Enabled(0))
	})
}

func TestGetBeforeInitialize(t *testing.T) {
	UseNop()
	// Must be safe to log before Initialize; everything is a no-op.
	Get(CategoryDispatch).Info("early")
}
