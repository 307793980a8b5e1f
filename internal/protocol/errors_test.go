package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse(t *testing.T) {
	kinds := []ErrorKind{ErrorGeneric, ErrorUnderConstruction, ErrorCommunication, ErrorNeedUpdate}

	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			resp := ErrorResponse(kind, "")

			require.NotNil(t, resp)
			assert.True(t, resp.IsError())
			assert.Equal(t, kind, resp.Err)
			assert.NotEmpty(t, resp.Page.Title)

			// Always a well-formed single-row, single-button page.
			require.Len(t, resp.Page.Rows, 1)
			require.Len(t, resp.Page.Rows[0].Buttons, 1)

			btn := resp.Page.Rows[0].Buttons[0]
			require.NotNil(t, btn.Action)
			assert.Equal(t, ActionLocal, btn.Action.Kind)
			assert.True(t, btn.Action.CloseWindow)
		})
	}

	t.Run("custom message preserved", func(t *testing.T) {
		resp := ErrorResponse(ErrorGeneric, "members only")
		assert.Equal(t, "members only", resp.Page.Title)
	})

	t.Run("none is promoted to generic", func(t *testing.T) {
		resp := ErrorResponse(ErrorNone, "")
		assert.Equal(t, ErrorGeneric, resp.Err)
	})
}
