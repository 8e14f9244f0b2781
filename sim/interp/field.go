// Package interp synthesizes intermediate frames between two authoritative
// snapshots. Every function here is stateless: it maps (previous, current,
// alpha) to one output and never retains its inputs.
//
// Alpha is always clamped to [0, 1]. Interpolation never extrapolates past the
// latest authoritative state.
package interp

import "fmt"

// Clamp01 limits alpha to the closed unit interval. NaN maps to 0.
func Clamp01(alpha float64) float64 {
	switch {
	case alpha > 1:
		return 1
	case alpha >= 0:
		return alpha
	default:
		// negative or NaN
		return 0
	}
}

// Field writes the elementwise blend of prev and curr into dst:
//
//	dst[i] = prev[i] + clamp(alpha)*(curr[i]-prev[i])
//
// The three slices cover every stacked variable of a grid, so one call
// interpolates the whole snapshot. Mismatched lengths are a contract violation
// and panic.
func Field(dst, prev, curr []float32, alpha float64) {
	if len(prev) != len(curr) || len(dst) != len(prev) {
		panic(fmt.Sprintf("interp: field length mismatch: dst=%d prev=%d curr=%d", len(dst), len(prev), len(curr)))
	}
	a := Clamp01(alpha)
	switch a {
	case 0:
		copy(dst, prev)
		return
	case 1:
		copy(dst, curr)
		return
	}
	for i := range dst {
		p := float64(prev[i])
		dst[i] = float32(p + a*(float64(curr[i])-p))
	}
}
