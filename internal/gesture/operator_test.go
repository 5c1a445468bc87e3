package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImmediateDragFinishes(t *testing.T) {
	op := NewOperator(Binding{Key: LeftMouse, Ctrl: true}, LeftMouse)

	require.Equal(t, StatusRunning, op.Invoke(Event{Type: LeftMouse, Value: Press, X: 10, Y: 20, Ctrl: true}))
	assert.Equal(t, StateDrag, op.State())

	assert.Equal(t, StatusPassThrough, op.Modal(Event{Type: MouseMove, X: 30, Y: 40}))
	_, end, ok := op.Current()
	require.True(t, ok)
	assert.Equal(t, Position{X: 30, Y: 40}, end)

	require.Equal(t, StatusFinished, op.Modal(Event{Type: LeftMouse, Value: Release, X: 50, Y: 60}))
	res, ok := op.Result()
	require.True(t, ok)
	assert.Equal(t, Result{Start: Position{10, 20}, End: Position{50, 60}}, res)

	assert.Equal(t, StatusFinished, op.Modal(Event{Type: Esc, Value: Press}))
}

func TestShiftReleaseDeselects(t *testing.T) {
	op := NewOperator(Binding{Key: LeftMouse, Ctrl: true}, LeftMouse)
	op.Invoke(Event{Type: LeftMouse, Value: Press})

	require.Equal(t, StatusFinished, op.Modal(Event{Type: LeftMouse, Value: Release, X: 1, Y: 1, Shift: true}))
	res, _ := op.Result()
	assert.True(t, res.Deselect)
}

func TestWrongMouseButtonCancels(t *testing.T) {
	op := NewOperator(Binding{Key: RightMouse, Ctrl: true}, LeftMouse)

	assert.Equal(t, StatusCancelled, op.Invoke(Event{Type: RightMouse, Value: Press, Ctrl: true}))
	_, ok := op.Result()
	assert.False(t, ok)
}

func TestRightMouseSelectPreference(t *testing.T) {
	op := NewOperator(Binding{Key: RightMouse, Ctrl: true}, RightMouse)
	require.Equal(t, StatusRunning, op.Invoke(Event{Type: RightMouse, Value: Press, X: 2, Y: 3}))

	require.Equal(t, StatusFinished, op.Modal(Event{Type: RightMouse, Value: Release, X: 4, Y: 5}))
	res, ok := op.Result()
	require.True(t, ok)
	assert.Equal(t, Position{X: 2, Y: 3}, res.Start)
}

func TestWaitForInput(t *testing.T) {
	op := NewOperator(Binding{Key: KeyB, Ctrl: true, WaitForInput: true, Extend: true}, RightMouse)
	require.Equal(t, StatusRunning, op.Invoke(Event{Type: KeyB, Value: Press, Ctrl: true}))
	assert.Equal(t, StateWait, op.State())

	// Ctrl+click while waiting does not start a drag.
	op.Modal(Event{Type: LeftMouse, Value: Press, Ctrl: true})
	assert.Equal(t, StateWait, op.State())

	op.Modal(Event{Type: LeftMouse, Value: Press, X: 5, Y: 5})
	assert.Equal(t, StateDrag, op.State())
	require.Equal(t, StatusFinished, op.Modal(Event{Type: LeftMouse, Value: Release, X: 9, Y: 9}))

	res, ok := op.Result()
	require.True(t, ok)
	assert.True(t, res.Extend)
	assert.Equal(t, Position{X: 5, Y: 5}, res.Start)
}

func TestReleaseWhileWaitingCancels(t *testing.T) {
	op := NewOperator(Binding{Key: KeyB, WaitForInput: true}, LeftMouse)
	op.Invoke(Event{Type: KeyB, Value: Press})

	assert.Equal(t, StatusCancelled, op.Modal(Event{Type: LeftMouse, Value: Release}))
	assert.Equal(t, StateCancelled, op.State())
}

func TestEscapeCancels(t *testing.T) {
	for _, key := range []EventType{Esc, RightMouse} {
		op := NewOperator(Binding{Key: KeyB, WaitForInput: true}, LeftMouse)
		op.Invoke(Event{Type: KeyB, Value: Press})
		op.Modal(Event{Type: LeftMouse, Value: Press})

		assert.Equal(t, StatusCancelled, op.Modal(Event{Type: key, Value: Press}), key)
		assert.Equal(t, "cancelled", op.State().String())
	}
}
