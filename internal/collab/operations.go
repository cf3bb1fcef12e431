package collab

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
	"github.com/schemeflow/schemeflow/backend-go/internal/userevents"
)

// SchemeState holds the authoritative scheme of one room. Mutations come in
// as operations; the indexed container keeps connector topology and item
// transforms consistent after every apply.
type SchemeState struct {
	mu        sync.RWMutex
	container *scene.Container
	serverSeq int64
	dirty     bool
}

// NewSchemeState wraps a loaded scheme.
func NewSchemeState(sch *scheme.Scheme) *SchemeState {
	return &SchemeState{container: scene.NewContainer(sch)}
}

// Scheme returns the current scheme document. Callers must not mutate it.
func (st *SchemeState) Scheme() *scheme.Scheme {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.container.Scheme()
}

// MarshalScheme serializes the current scheme under the state lock.
func (st *SchemeState) MarshalScheme() ([]byte, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.container.Scheme().Marshal()
}

// ServerSeq returns the last applied sequence number.
func (st *SchemeState) ServerSeq() int64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.serverSeq
}

// Dirty reports whether the scheme changed since the last save.
func (st *SchemeState) Dirty() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.dirty
}

// MarkSaved clears the dirty flag after a successful save.
func (st *SchemeState) MarkSaved() {
	st.mu.Lock()
	st.dirty = false
	st.mu.Unlock()
}

// ApplyOperation applies an operation and returns the new server sequence.
func (st *SchemeState) ApplyOperation(op Operation) (int64, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.applyLocked(op); err != nil {
		return 0, err
	}
	st.serverSeq++
	st.dirty = true
	return st.serverSeq, nil
}

func (st *SchemeState) applyLocked(op Operation) error {
	switch op.Type {
	case OpItemTransform:
		return st.applyTransform(op)
	case OpItemProps:
		return st.applyProps(op)
	case OpItemCreate:
		return st.applyCreate(op)
	case OpItemDelete:
		return st.applyDelete(op)
	case OpItemReparent:
		return st.applyReparent(op)
	case OpSchemeRename:
		return st.applyRename(op)
	case OpSchemeStyle:
		return st.applyStyle(op)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func (st *SchemeState) applyTransform(op Operation) error {
	item := st.container.FindItemByID(op.ItemID)
	if item == nil {
		return fmt.Errorf("item not found: %s", op.ItemID)
	}

	if v, ok := op.Area["x"]; ok {
		item.Area.X = v
	}
	if v, ok := op.Area["y"]; ok {
		item.Area.Y = v
	}
	if v, ok := op.Area["w"]; ok {
		item.Area.W = v
	}
	if v, ok := op.Area["h"]; ok {
		item.Area.H = v
	}
	if v, ok := op.Area["r"]; ok {
		item.Area.R = v
	}
	if v, ok := op.Area["px"]; ok {
		item.Area.Px = v
	}
	if v, ok := op.Area["py"]; ok {
		item.Area.Py = v
	}

	st.container.ReindexItemTransforms(item)
	st.container.RebuildConnectorsForItem(item.ID)
	return nil
}

func (st *SchemeState) applyProps(op Operation) error {
	item := st.container.FindItemByID(op.ItemID)
	if item == nil {
		return fmt.Errorf("item not found: %s", op.ItemID)
	}
	for path, value := range op.Props {
		if err := userevents.SetItemField(item, path, value); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	st.container.ReindexItemTransforms(item)
	st.container.RebuildConnectorsForItem(item.ID)
	return nil
}

func (st *SchemeState) applyCreate(op Operation) error {
	var item scheme.Item
	if err := json.Unmarshal(op.Item, &item); err != nil {
		return fmt.Errorf("invalid item: %w", err)
	}
	if item.ID != "" && st.container.FindItemByID(item.ID) != nil {
		return fmt.Errorf("item already exists: %s", item.ID)
	}

	if op.ParentID != "" {
		parent := st.container.FindItemByID(op.ParentID)
		if parent == nil {
			return fmt.Errorf("parent not found: %s", op.ParentID)
		}
		st.container.AddChildItem(parent, &item)
	} else {
		st.container.AddItem(&item)
	}
	return nil
}

func (st *SchemeState) applyDelete(op Operation) error {
	if st.container.FindItemByID(op.ItemID) == nil {
		return fmt.Errorf("item not found: %s", op.ItemID)
	}
	st.container.DeleteItem(op.ItemID)
	return nil
}

func (st *SchemeState) applyReparent(op Operation) error {
	item := st.container.FindItemByID(op.ItemID)
	if item == nil {
		return fmt.Errorf("item not found: %s", op.ItemID)
	}
	var parent *scheme.Item
	if op.NewParentID != "" {
		parent = st.container.FindItemByID(op.NewParentID)
		if parent == nil {
			return fmt.Errorf("new parent not found: %s", op.NewParentID)
		}
	}
	st.container.RemountItemInsideOtherItem(item, parent)
	return nil
}

func (st *SchemeState) applyRename(op Operation) error {
	if op.Name == "" {
		return fmt.Errorf("empty scheme name")
	}
	st.container.Scheme().Name = op.Name
	return nil
}

func (st *SchemeState) applyStyle(op Operation) error {
	var style scheme.Style
	if err := json.Unmarshal(op.Style, &style); err != nil {
		return fmt.Errorf("invalid style: %w", err)
	}
	st.container.Scheme().Style = style
	return nil
}

// GetServerTimestamp returns the current server timestamp in milliseconds.
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
