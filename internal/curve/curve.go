package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrMalformed is returned when keyframes cannot form a usable curve.
var ErrMalformed = errors.New("malformed curve")

// #region types
// Keyframe is a single control point. T is the normalized input in [0,1].
type Keyframe struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

// Curve is a piecewise-linear control curve over [0,1]. The zero value
// evaluates as the identity curve.
type Curve struct {
	keys []Keyframe
}

// #endregion types

// #region constructors

// New builds a curve from keyframes. Keys are sorted by T; keys sharing a T
// keep the last value. Malformed input (NaN/Inf, T outside [0,1]) returns the
// identity curve together with an error wrapping ErrMalformed, so callers can
// log the problem and keep running.
func New(keys ...Keyframe) (Curve, error) {
	if len(keys) == 0 {
		return Identity(), fmt.Errorf("%w: no keyframes", ErrMalformed)
	}
	sorted := make([]Keyframe, len(keys))
	copy(sorted, keys)
	for i, k := range sorted {
		if !finite(k.T) || !finite(k.V) {
			return Identity(), fmt.Errorf("%w: keyframe %d not finite", ErrMalformed, i)
		}
		if k.T < 0 || k.T > 1 {
			return Identity(), fmt.Errorf("%w: keyframe %d t=%.4f outside [0,1]", ErrMalformed, i, k.T)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })

	deduped := sorted[:0]
	for _, k := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].T == k.T {
			deduped[n-1] = k
			continue
		}
		deduped = append(deduped, k)
	}
	return Curve{keys: deduped}, nil
}

// Must is New for static tables known to be valid. Malformed keys yield identity.
func Must(keys ...Keyframe) Curve {
	c, _ := New(keys...)
	return c
}

// Identity returns f(t) = t.
func Identity() Curve {
	return Curve{keys: []Keyframe{{0, 0}, {1, 1}}}
}

// Linear returns a straight line from a at t=0 to b at t=1.
func Linear(a, b float64) Curve {
	return Curve{keys: []Keyframe{{0, a}, {1, b}}}
}

// Constant returns f(t) = v.
func Constant(v float64) Curve {
	return Curve{keys: []Keyframe{{0, v}}}
}

// #endregion constructors

// #region evaluate

// Evaluate returns the curve value at t. t is clamped to [0,1]; values
// before the first or after the last key hold that key's value.
func (c Curve) Evaluate(t float64) float64 {
	keys := c.keys
	if len(keys) == 0 {
		keys = []Keyframe{{0, 0}, {1, 1}}
	}
	t = Clamp01(t)
	if t <= keys[0].T {
		return keys[0].V
	}
	last := keys[len(keys)-1]
	if t >= last.T {
		return last.V
	}
	// first key with T > t
	i := sort.Search(len(keys), func(i int) bool { return keys[i].T > t })
	a, b := keys[i-1], keys[i]
	span := b.T - a.T
	if span <= 0 {
		return b.V
	}
	return a.V + (b.V-a.V)*(t-a.T)/span
}

// Keys returns a copy of the keyframes.
func (c Curve) Keys() []Keyframe {
	out := make([]Keyframe, len(c.keys))
	copy(out, c.keys)
	return out
}

// #endregion evaluate

// #region helpers

// Clamp01 restricts v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp restricts v to [lo,hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b by t (unclamped).
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// MoveTowards steps current toward target by at most step.
func MoveTowards(current, target, step float64) float64 {
	if math.Abs(target-current) <= step {
		return target
	}
	if target > current {
		return current + step
	}
	return current - step
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion helpers
