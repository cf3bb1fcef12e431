package animations

// Easing names accepted in behavior action arguments.
const (
	EasingLinear    = "linear"
	EasingSmooth    = "smooth"
	EasingEaseIn    = "ease-in"
	EasingEaseOut   = "ease-out"
	EasingEaseInOut = "ease-in-out"
	EasingBounce    = "bounce"
)

// Ease maps a linear progress value t in [0, 1] onto the named curve.
// Unknown names fall back to linear.
func Ease(t float64, easing string) float64 {
	t = max(0, min(1, t))
	switch easing {
	case EasingEaseIn:
		return t * t
	case EasingEaseOut:
		return t * (2 - t)
	case EasingEaseInOut, EasingSmooth:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	case EasingBounce:
		return bounceOut(t)
	default:
		return t
	}
}

// bounceOut implements the standard 4-segment parabolic bounce curve.
func bounceOut(t float64) float64 {
	n1 := 7.5625
	d1 := 2.75
	if t < 1/d1 {
		return n1 * t * t
	} else if t < 2/d1 {
		t -= 1.5 / d1
		return n1*t*t + 0.75
	} else if t < 2.5/d1 {
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	}
	t -= 2.625 / d1
	return n1*t*t + 0.984375
}
