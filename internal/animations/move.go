package animations

import (
	"math"

	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// MoveToItemAnimation glides an item so that its center lands on the center
// of a destination item. Connectors attached to the moving item are rebuilt
// every frame.
type MoveToItemAnimation struct {
	Container   *scene.Container
	Item        *scheme.Item
	Destination *scheme.Item
	Duration    float64
	Easing      string
	// Rotate aligns the item's rotation with the destination item.
	Rotate bool

	startX, startY, startR    float64
	targetX, targetY, targetR float64
	elapsed                   float64
}

func (a *MoveToItemAnimation) Init() bool {
	if a.Container == nil || a.Item == nil || a.Destination == nil || a.Duration <= 0 {
		return false
	}

	destCenter := a.Container.WorldPointOnItem(a.Destination, a.Destination.Area.W/2, a.Destination.Area.H/2)

	// bring the destination center into the moving item's parent space
	lx, ly := a.Item.Meta.Transform.Invert().TransformPoint(destCenter.X, destCenter.Y)

	a.startX = a.Item.Area.X
	a.startY = a.Item.Area.Y
	a.startR = a.Item.Area.R
	a.targetX = lx - a.Item.Area.W/2
	a.targetY = ly - a.Item.Area.H/2
	a.targetR = a.startR
	if a.Rotate {
		parentAngle := a.Container.WorldAngleOfItem(a.Item) - a.Item.Area.R
		a.targetR = a.Container.WorldAngleOfItem(a.Destination) - parentAngle
		// take the short way around
		for a.targetR-a.startR > 180 {
			a.targetR -= 360
		}
		for a.targetR-a.startR < -180 {
			a.targetR += 360
		}
	}
	return true
}

func (a *MoveToItemAnimation) Play(dt float64) bool {
	a.elapsed += dt
	t := a.elapsed / a.Duration
	done := t >= 1
	v := 1.0
	if !done {
		v = Ease(t, a.Easing)
	}

	a.Item.Area.X = a.startX + (a.targetX-a.startX)*v
	a.Item.Area.Y = a.startY + (a.targetY-a.startY)*v
	if a.Rotate {
		a.Item.Area.R = a.startR + (a.targetR-a.startR)*v
	}
	a.Container.ReindexItemTransforms(a.Item)
	a.Container.RebuildConnectorsForItem(a.Item.ID)
	return !done
}

func (a *MoveToItemAnimation) Destroy() {
	a.Item.Area.X = a.targetX
	a.Item.Area.Y = a.targetY
	if a.Rotate {
		a.Item.Area.R = math.Mod(a.targetR, 360)
	}
	a.Container.ReindexItemTransforms(a.Item)
	a.Container.RebuildConnectorsForItem(a.Item.ID)
}

var _ Animation = (*MoveToItemAnimation)(nil)
