package editor

import (
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// newCreateComponentState creates component placeholders with the same
// rubber-band gesture as item creation. A component references another
// scheme that is loaded into it on demand.
func newCreateComponentState(s *Session) *createItemState {
	state := &createItemState{
		baseState: baseState{session: s, name: StateCreateComponent},
		shape:     scheme.ShapeComponent,
		nameBase:  "Component",
	}
	state.configure = func(item *scheme.Item) {
		item.ShapeProps = map[string]any{
			"kind":     "embedded",
			"schemeId": "",
		}
	}
	return state
}
