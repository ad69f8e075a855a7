package models

// Sampling-parameter defaults applied at registration when the client sends
// none.
const (
	DefaultTopP        = 0.9
	DefaultTemperature = 0.7
)

// ClampTopP restricts v to [0, 1]. A nil v falls back unchanged: the user's
// default at conversation creation, the conversation's current value on
// update. Out-of-range values clamp silently, they are never rejected.
func ClampTopP(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return clamp(*v, 0, 1)
}

// ClampTemperature restricts v to [0, 2], with the same fallback rules as
// ClampTopP.
func ClampTemperature(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return clamp(*v, 0, 2)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
