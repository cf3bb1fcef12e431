package animations

import (
	"math"

	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// BlinkEffect pulses an item's opacity for a fixed duration and restores the
// original opacity afterwards.
type BlinkEffect struct {
	Item     *scheme.Item
	Duration float64
	// Pulses per second.
	Frequency float64
	// MinOpacity is the lowest opacity reached during a pulse, in percent.
	MinOpacity float64

	originalOpacity float64
	elapsed         float64
}

func (b *BlinkEffect) Init() bool {
	if b.Item == nil || b.Duration <= 0 {
		return false
	}
	if b.Frequency <= 0 {
		b.Frequency = 2
	}
	b.originalOpacity = b.Item.Opacity
	return true
}

func (b *BlinkEffect) Play(dt float64) bool {
	b.elapsed += dt
	if b.elapsed >= b.Duration {
		return false
	}
	phase := (1 + math.Sin(b.elapsed*b.Frequency*2*math.Pi-math.Pi/2)) / 2
	b.Item.Opacity = b.MinOpacity + (b.originalOpacity-b.MinOpacity)*phase
	return true
}

func (b *BlinkEffect) Destroy() {
	b.Item.Opacity = b.originalOpacity
}

var _ Animation = (*BlinkEffect)(nil)
