package animations

// ValueAnimation drives a single eased value from 0 to 1 over a fixed
// duration and feeds it to a callback each frame. Most effects are built on
// top of it.
type ValueAnimation struct {
	// Duration of the animation in seconds.
	Duration float64
	// Easing curve name, see Ease.
	Easing string
	// OnSetup runs before the first frame. Returning false cancels the
	// animation.
	OnSetup func() bool
	// OnUpdate receives the eased progress in [0, 1] every frame.
	OnUpdate func(v float64)
	// OnDestroy runs once when the animation finishes or is stopped.
	OnDestroy func()

	elapsed float64
}

func (a *ValueAnimation) Init() bool {
	if a.Duration <= 0 {
		return false
	}
	if a.OnSetup != nil {
		return a.OnSetup()
	}
	return true
}

func (a *ValueAnimation) Play(dt float64) bool {
	a.elapsed += dt
	t := a.elapsed / a.Duration
	if t >= 1 {
		if a.OnUpdate != nil {
			a.OnUpdate(1)
		}
		return false
	}
	if a.OnUpdate != nil {
		a.OnUpdate(Ease(t, a.Easing))
	}
	return true
}

func (a *ValueAnimation) Destroy() {
	if a.OnDestroy != nil {
		a.OnDestroy()
	}
}
