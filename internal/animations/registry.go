// Package animations drives time-based mutations of scheme items. Effects
// implement the Animation interface and are advanced by an external tick
// loop; nothing in this package owns a timer.
package animations

import (
	"log/slog"
	"sync"
)

// Animation is a single running effect. Init runs once before the first
// frame and may reject the animation by returning false. Play advances the
// effect by dt seconds and returns false once the effect finished. Destroy
// restores any state the effect touched and runs exactly once.
type Animation interface {
	Init() bool
	Play(dt float64) bool
	Destroy()
}

type entry struct {
	animation Animation
	itemID    string
	name      string
}

// Registry holds running animations keyed by the item they affect. Playing
// a named animation for an item replaces a previous animation with the same
// name on that item.
type Registry struct {
	mu      sync.Mutex
	entries []*entry
}

// NewRegistry creates an empty animation registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Play starts an animation bound to an item. When name is not empty and the
// item already runs an animation with that name, the old one is destroyed
// first. Returns false when the animation rejected itself in Init.
func (r *Registry) Play(a Animation, itemID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name != "" {
		for i, e := range r.entries {
			if e.itemID == itemID && e.name == name {
				r.destroyEntry(e)
				r.entries = append(r.entries[:i], r.entries[i+1:]...)
				break
			}
		}
	}
	if !safeInit(a) {
		return false
	}
	r.entries = append(r.entries, &entry{animation: a, itemID: itemID, name: name})
	return true
}

// Tick advances all animations in registration order. Finished animations
// are destroyed and removed.
func (r *Registry) Tick(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alive := r.entries[:0]
	for _, e := range r.entries {
		if safePlay(e.animation, dt) {
			alive = append(alive, e)
		} else {
			r.destroyEntry(e)
		}
	}
	r.entries = alive
}

// StopAllAnimationsForItem destroys every animation bound to the item.
func (r *Registry) StopAllAnimationsForItem(itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alive := r.entries[:0]
	for _, e := range r.entries {
		if e.itemID == itemID {
			r.destroyEntry(e)
		} else {
			alive = append(alive, e)
		}
	}
	r.entries = alive
}

// StopAll destroys every running animation.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		r.destroyEntry(e)
	}
	r.entries = r.entries[:0]
}

// Count returns the number of running animations.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) destroyEntry(e *entry) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("animation destroy panicked", "item", e.itemID, "err", rec)
		}
	}()
	e.animation.Destroy()
}

func safeInit(a Animation) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("animation init panicked", "err", rec)
			ok = false
		}
	}()
	return a.Init()
}

func safePlay(a Animation, dt float64) (alive bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("animation frame panicked", "err", rec)
			alive = false
		}
	}()
	return a.Play(dt)
}
