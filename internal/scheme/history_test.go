package scheme

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(i int) []byte {
	return []byte(fmt.Sprintf("state-%d", i))
}

func allCheckpoints(h *History) []string {
	out := make([]string, 0, h.Len())
	for _, c := range h.checkpoints {
		out = append(out, string(c))
	}
	return out
}

func TestHistoryHoldsOnlyConfiguredAmount(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 10; i++ {
		h.Commit(snapshot(i))
	}

	assert.Equal(t, []string{"state-7", "state-8", "state-9"}, allCheckpoints(h))

	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, "state-9", string(cur))
}

func TestHistoryUndo(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 10; i++ {
		h.Commit(snapshot(i))
	}

	cur, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "state-8", string(cur))

	// undo never truncates the checkpoint list
	assert.Equal(t, []string{"state-7", "state-8", "state-9"}, allCheckpoints(h))

	h.Undo()
	_, ok = h.Undo()
	assert.False(t, ok, "cannot undo past the oldest checkpoint")

	cur, ok = h.Current()
	require.True(t, ok)
	assert.Equal(t, "state-7", string(cur))
}

func TestHistoryRedo(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 10; i++ {
		h.Commit(snapshot(i))
	}

	h.Undo()
	h.Undo()
	cur, ok := h.Redo()
	require.True(t, ok)
	assert.Equal(t, "state-8", string(cur))

	assert.Equal(t, []string{"state-7", "state-8", "state-9"}, allCheckpoints(h))
}

func TestHistoryCommitAfterUndoDropsRedoTail(t *testing.T) {
	h := NewHistory(5)
	for i := 0; i < 5; i++ {
		h.Commit(snapshot(i))
	}

	h.Undo()
	h.Undo()
	h.Commit([]byte("state-1000"))

	assert.Equal(t, []string{"state-0", "state-1", "state-2", "state-1000"}, allCheckpoints(h))

	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, "state-1000", string(cur))
}

func TestHistoryUndoCommitTwice(t *testing.T) {
	h := NewHistory(5)
	h.Commit([]byte("Cat"))
	h.Commit([]byte("Dog"))
	h.Undo()
	h.Commit([]byte("Lizzard"))
	h.Undo()

	assert.Equal(t, []string{"Cat", "Lizzard"}, allCheckpoints(h))

	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, "Cat", string(cur))
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(3)
	_, ok := h.Current()
	assert.False(t, ok)
	_, ok = h.Undo()
	assert.False(t, ok)
	_, ok = h.Redo()
	assert.False(t, ok)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
