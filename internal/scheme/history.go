package scheme

// History keeps a bounded list of scheme checkpoints for undo and redo.
// Checkpoints are serialized snapshots so that later mutations of the live
// scheme cannot corrupt them.
type History struct {
	checkpoints [][]byte
	current     int
	size        int
}

// DefaultHistorySize bounds the checkpoint list when no size is configured.
const DefaultHistorySize = 30

// NewHistory creates a history holding at most size checkpoints.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		checkpoints: make([][]byte, 0, size),
		current:     -1,
		size:        size,
	}
}

// Commit records a new checkpoint. Any redo tail past the current position
// is discarded and the oldest checkpoint is evicted once the list is full.
func (h *History) Commit(state []byte) {
	if h.current < len(h.checkpoints)-1 {
		h.checkpoints = h.checkpoints[:h.current+1]
	}
	h.checkpoints = append(h.checkpoints, state)
	if len(h.checkpoints) > h.size {
		h.checkpoints = h.checkpoints[1:]
	}
	h.current = len(h.checkpoints) - 1
}

// Undo moves the cursor one checkpoint back and returns it. The checkpoint
// list itself is not truncated. Returns false when already at the oldest
// checkpoint.
func (h *History) Undo() ([]byte, bool) {
	if h.current <= 0 {
		return nil, false
	}
	h.current--
	return h.checkpoints[h.current], true
}

// Redo moves the cursor one checkpoint forward and returns it. Returns false
// when already at the newest checkpoint.
func (h *History) Redo() ([]byte, bool) {
	if h.current >= len(h.checkpoints)-1 {
		return nil, false
	}
	h.current++
	return h.checkpoints[h.current], true
}

// Current returns the checkpoint at the cursor, or false when the history is
// empty.
func (h *History) Current() ([]byte, bool) {
	if h.current < 0 || h.current >= len(h.checkpoints) {
		return nil, false
	}
	return h.checkpoints[h.current], true
}

// CanUndo reports whether an older checkpoint exists.
func (h *History) CanUndo() bool {
	return h.current > 0
}

// CanRedo reports whether a newer checkpoint exists.
func (h *History) CanRedo() bool {
	return h.current < len(h.checkpoints)-1
}

// Len returns the number of stored checkpoints.
func (h *History) Len() int {
	return len(h.checkpoints)
}
