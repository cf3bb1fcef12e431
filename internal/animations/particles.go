package animations

import (
	"math"

	"github.com/schemeflow/schemeflow/backend-go/internal/geometry"
	"github.com/schemeflow/schemeflow/backend-go/internal/scene"
	"github.com/schemeflow/schemeflow/backend-go/internal/scheme"
)

// ParticleEffect sends particles traveling along a connector's path. The
// computed world positions are published to the render layer through the
// OnFrame callback every frame; a nil frame marks the end of the effect.
type ParticleEffect struct {
	Container *scene.Container
	Item      *scheme.Item
	Duration  float64
	// Particles traveling concurrently along the path.
	ParticleCount int
	// Speed in world units per second.
	Speed   float64
	OnFrame func(points []geometry.Point)

	path    *geometry.Path
	total   float64
	offset  float64
	elapsed float64
}

func (p *ParticleEffect) Init() bool {
	if p.Container == nil || p.Item == nil || p.Duration <= 0 {
		return false
	}
	p.path = p.Container.ItemOutline(p.Item)
	if p.path == nil || p.path.IsEmpty() {
		return false
	}
	p.total = p.path.TotalLength()
	if p.ParticleCount <= 0 {
		p.ParticleCount = 3
	}
	if p.Speed <= 0 {
		p.Speed = 60
	}
	return true
}

func (p *ParticleEffect) Play(dt float64) bool {
	p.elapsed += dt
	if p.elapsed >= p.Duration {
		return false
	}
	p.offset = math.Mod(p.offset+p.Speed*dt, p.total)

	points := make([]geometry.Point, 0, p.ParticleCount)
	spacing := p.total / float64(p.ParticleCount)
	for i := 0; i < p.ParticleCount; i++ {
		d := math.Mod(p.offset+float64(i)*spacing, p.total)
		points = append(points, p.path.PointAtLength(d))
	}
	if p.OnFrame != nil {
		p.OnFrame(points)
	}
	return true
}

func (p *ParticleEffect) Destroy() {
	if p.OnFrame != nil {
		p.OnFrame(nil)
	}
}

var _ Animation = (*ParticleEffect)(nil)
