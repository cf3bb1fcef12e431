package scheme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemDefaultsOnUnmarshal(t *testing.T) {
	data := []byte(`{"id": "item_1", "name": "box"}`)

	var it Item
	require.NoError(t, it.UnmarshalJSON(data))

	assert.Equal(t, ShapeRect, it.Shape)
	assert.Equal(t, 100.0, it.Opacity)
	assert.Equal(t, 100.0, it.SelfOpacity)
	assert.True(t, it.Visible)
}

func TestItemExplicitValuesSurviveUnmarshal(t *testing.T) {
	data := []byte(`{"id": "item_1", "shape": "ellipse", "opacity": 40, "visible": false}`)

	var it Item
	require.NoError(t, it.UnmarshalJSON(data))

	assert.Equal(t, ShapeEllipse, it.Shape)
	assert.Equal(t, 40.0, it.Opacity)
	assert.False(t, it.Visible)
}

func TestSchemeRoundTrip(t *testing.T) {
	s := NewScheme("scheme_1", "flow")
	parent := NewItem("item_1", "frame", ShapeRect)
	parent.Area = Area{X: 10, Y: 20, W: 300, H: 200, R: 15, Px: 0.5, Py: 0.5}
	child := NewItem("item_2", "label", ShapeRect)
	child.TextSlots = map[string]TextSlot{"body": {Text: "hello"}}
	child.Behavior = Behavior{Events: []BehaviorEvent{{
		Event: EventClicked,
		Actions: []BehaviorAction{
			{Element: "#item_1", Method: "hide"},
		},
	}}}
	parent.ChildItems = []*Item{child}
	s.Items = []*Item{parent}

	data, err := s.Marshal()
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)

	require.Len(t, loaded.Items, 1)
	got := loaded.Items[0]
	assert.Equal(t, parent.Area, got.Area)
	require.Len(t, got.ChildItems, 1)
	assert.Equal(t, "hello", got.ChildItems[0].TextSlots["body"].Text)
	assert.Equal(t, EventClicked, got.ChildItems[0].Behavior.Events[0].Event)
	assert.Equal(t, "#item_1", got.ChildItems[0].Behavior.Events[0].Actions[0].Element)
}

func TestItemCloneIsDeep(t *testing.T) {
	it := NewItem("item_1", "box", ShapeRect)
	it.ShapeProps["fill"] = "red"
	it.ChildItems = []*Item{NewItem("item_2", "inner", ShapeEllipse)}

	clone := it.Clone()
	require.NotNil(t, clone)
	clone.ShapeProps["fill"] = "blue"
	clone.ChildItems[0].Name = "changed"

	assert.Equal(t, "red", it.ShapeProps["fill"])
	assert.Equal(t, "inner", it.ChildItems[0].Name)
}

func TestCurvePointsRoundTrip(t *testing.T) {
	props := map[string]any{}
	points := []CurvePoint{
		{T: CurvePointLinear, X: 0, Y: 0},
		{T: CurvePointBezier, X: 50, Y: 20, X1: -10, Y1: 0, X2: 10, Y2: 0},
		{T: CurvePointLinear, X: 100, Y: 40, Break: true},
	}
	SetCurvePoints(props, points)

	got := CurvePointsFromProps(props)
	assert.Equal(t, points, got)
}

func TestPropAccessors(t *testing.T) {
	props := map[string]any{
		PropSourceItem:         "#item_9",
		PropSourceItemPosition: 12.5,
	}
	assert.Equal(t, "#item_9", StringProp(props, PropSourceItem))
	assert.Equal(t, "", StringProp(props, PropDestinationItem))

	v, ok := FloatProp(props, PropSourceItemPosition)
	require.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = FloatProp(props, PropDestinationItemPosition)
	assert.False(t, ok)
}
