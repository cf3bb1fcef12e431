package scheme

import (
	"encoding/json"

	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
)

// AreaTypeViewport marks an overlay item positioned in viewport coordinates
// instead of world coordinates. The zero value of Area.Type means a regular
// world-space item.
const AreaTypeViewport = "viewport"

// Area describes the placement of an item in its parent coordinate system.
// (x, y) is the top-left corner before rotation, (w, h) the size, r the
// rotation in degrees and (px, py) the rotation pivot as a fraction of the
// size.
type Area struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	R    float64 `json:"r"`
	Px   float64 `json:"px"`
	Py   float64 `json:"py"`
	Type string  `json:"type,omitempty"`
}

// Rect returns the unrotated local bounds of the area.
func (a Area) Rect() geometry.Rect {
	return geometry.Rect{X: a.X, Y: a.Y, Width: a.W, Height: a.H}
}

// Shape identifiers handled by the editor core.
const (
	ShapeRect      = "rect"
	ShapeEllipse   = "ellipse"
	ShapeConnector = "connector"
	ShapeComponent = "component"
	ShapeDummy     = "dummy"
)

// TextSlot is a named text region of an item.
type TextSlot struct {
	Text     string  `json:"text"`
	Color    string  `json:"color,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	HAlign   string  `json:"halign,omitempty"`
	VAlign   string  `json:"valign,omitempty"`
}

// BehaviorAction invokes a method on an element resolved by selector when
// its enclosing event fires.
type BehaviorAction struct {
	ID      string         `json:"id,omitempty"`
	Element string         `json:"element"`
	Method  string         `json:"method"`
	Args    map[string]any `json:"args,omitempty"`
}

// BehaviorEvent binds a list of actions to a named event on the item.
type BehaviorEvent struct {
	ID      string           `json:"id,omitempty"`
	Event   string           `json:"event"`
	Actions []BehaviorAction `json:"actions"`
}

// Behavior holds the scripted reactions of an item.
type Behavior struct {
	Events []BehaviorEvent `json:"events"`
}

// Standard behavior event names.
const (
	EventInit      = "init"
	EventClicked   = "clicked"
	EventMouseIn   = "mousein"
	EventMouseOut  = "mouseout"
	EventDragStart = "dragStart"
	EventDrag      = "drag"
	EventDragEnd   = "dragEnd"
)

// ItemArgs carries template bookkeeping for items generated from templates.
type ItemArgs struct {
	Templated    bool           `json:"templated,omitempty"`
	TemplatedID  string         `json:"templatedId,omitempty"`
	TemplateRef  string         `json:"templateRef,omitempty"`
	TemplateArgs map[string]any `json:"templateArgs,omitempty"`
}

// Meta holds transient indexing state. It is rebuilt by the scheme container
// and never serialized.
type Meta struct {
	// Transform is the world transform of the parent chain; the item's own
	// area transform is applied on top of it.
	Transform   geometry.Matrix2D
	ParentID    string
	AncestorIDs []string
}

// Item is a single element of a scheme. Child items live in their parent's
// local coordinate system.
type Item struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Shape       string              `json:"shape"`
	Area        Area                `json:"area"`
	ShapeProps  map[string]any      `json:"shapeProps,omitempty"`
	Opacity     float64             `json:"opacity"`
	SelfOpacity float64             `json:"selfOpacity"`
	Visible     bool                `json:"visible"`
	BlendMode   string              `json:"blendMode,omitempty"`
	Locked      bool                `json:"locked,omitempty"`
	Clip        bool                `json:"clip,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	TextSlots   map[string]TextSlot `json:"textSlots,omitempty"`
	Behavior    Behavior            `json:"behavior"`
	Args        *ItemArgs           `json:"args,omitempty"`
	ChildItems  []*Item             `json:"childItems,omitempty"`

	Meta Meta `json:"-"`
}

// UnmarshalJSON applies item defaults for fields that are absent in the
// payload so that older documents load with sensible values.
func (it *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	tmp := alias{
		Shape:       ShapeRect,
		Opacity:     100,
		SelfOpacity: 100,
		Visible:     true,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*it = Item(tmp)
	return nil
}

// NewItem creates an item of the given shape with default presentation
// values. The caller assigns the id.
func NewItem(id, name, shape string) *Item {
	return &Item{
		ID:          id,
		Name:        name,
		Shape:       shape,
		Opacity:     100,
		SelfOpacity: 100,
		Visible:     true,
		ShapeProps:  map[string]any{},
	}
}

// Clone returns a deep copy of the item tree. Meta is reset on the copy.
func (it *Item) Clone() *Item {
	data, err := json.Marshal(it)
	if err != nil {
		return nil
	}
	var out Item
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}

// HasTag reports whether the item carries the given tag.
func (it *Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TemplatedID returns the template-generated identity of the item, or empty
// when the item was not produced by a template.
func (it *Item) TemplatedID() string {
	if it.Args == nil || !it.Args.Templated {
		return ""
	}
	return it.Args.TemplatedID
}

// IsTemplateRoot reports whether the item is the root of an instantiated
// template.
func (it *Item) IsTemplateRoot() bool {
	return it.Args != nil && it.Args.TemplateRef != ""
}
