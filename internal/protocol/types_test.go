package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestClone(t *testing.T) {
	orig := NewRequest("/store", MethodGet, map[string]string{"tab": "new"})
	clone := orig.Clone()
	require.True(t, orig.Equal(clone))

	// Mutating the clone must not leak into the original.
	clone.Args["tab"] = "old"
	clone.Path = "/other"
	assert.Equal(t, "new", orig.Args["tab"])
	assert.Equal(t, "/store", orig.Path)

	var nilReq *Request
	assert.Nil(t, nilReq.Clone())
}

func TestRequestEqual(t *testing.T) {
	a := NewRequest("/p", MethodGet, map[string]string{"x": "1"})
	b := NewRequest("/p", MethodGet, map[string]string{"x": "1"})
	c := NewRequest("/p", MethodPost, map[string]string{"x": "1"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestRequestCacheKey(t *testing.T) {
	a := NewRequest("/p", MethodGet, map[string]string{"a": "1", "b": "2"})
	b := NewRequest("/p", MethodGet, map[string]string{"b": "2", "a": "1"})
	c := NewRequest("/p", MethodGet, map[string]string{"a": "1", "b": "3"})

	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

func TestResponseClone(t *testing.T) {
	orig := samplePageResponse()
	clone := orig.Clone()
	require.Empty(t, cmp.Diff(orig, clone))

	// Deep copy: nested mutations must not alias.
	clone.Page.Rows[0].Buttons[0].Action.Request.Args["item"] = "boots"
	clone.Effects[0].Message = "changed"
	clone.Local.Name = "changed"
	clone.Timed.Action.CloseWindow = false

	assert.Equal(t, "hat", orig.Page.Rows[0].Buttons[0].Action.Request.Args["item"])
	assert.Equal(t, "hi", orig.Effects[0].Message)
	assert.Equal(t, "arrived", orig.Local.Name)
	assert.True(t, orig.Timed.Action.CloseWindow)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "browse", ActionBrowse.String())
	assert.Equal(t, "local", ActionLocal.String())
	assert.Equal(t, "sound", EffectPlaySound.String())
	assert.Equal(t, "need-update", ErrorNeedUpdate.String())
}
