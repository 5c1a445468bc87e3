package gesture

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeymap(t *testing.T) {
	k := DefaultKeymap()
	require.Len(t, k.Bindings(), 3)

	b, ok := k.Match(Event{Type: KeyB, Value: Press, Ctrl: true})
	require.True(t, ok)
	assert.True(t, b.WaitForInput)
	assert.True(t, b.Extend)

	_, ok = k.Match(Event{Type: LeftMouse, Value: Press})
	assert.False(t, ok, "plain click is not bound")
	_, ok = k.Match(Event{Type: LeftMouse, Value: Release, Ctrl: true})
	assert.False(t, ok, "only presses start the operator")
}

func TestRegisterUnregister(t *testing.T) {
	k := DefaultKeymap()

	k.Register(Binding{Key: LeftMouse, Ctrl: true, Extend: true})
	require.Len(t, k.Bindings(), 3)
	b, _ := k.Match(Event{Type: LeftMouse, Value: Press, Ctrl: true})
	assert.True(t, b.Extend)

	assert.True(t, k.Unregister(LeftMouse, true))
	assert.False(t, k.Unregister(LeftMouse, true))
	k.Clear()
	assert.Empty(t, k.Bindings())
}

func TestLoadKeymap(t *testing.T) {
	src := `
name: Custom
bindings:
  - key: B
    waitForInput: true
  - key: LEFTMOUSE
    ctrl: true
    extend: true
`
	k, err := LoadKeymap(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "Custom", k.Name())
	assert.Equal(t, []Binding{
		{Key: KeyB, WaitForInput: true},
		{Key: LeftMouse, Ctrl: true, Extend: true},
	}, k.Bindings())
}

func TestLoadKeymapRejectsUnknownKey(t *testing.T) {
	_, err := LoadKeymap(strings.NewReader("bindings:\n  - key: WHEELUP\n"))
	assert.ErrorIs(t, err, ErrUnknownKey)
}
