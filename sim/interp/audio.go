package interp

import (
	"fmt"
	"sort"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// AudioParams are the per-snapshot mixer settings.
type AudioParams struct {
	Volume    float32
	LeftGain  float32
	RightGain float32
}

// Audio blends each mixer setting independently.
func Audio(prev, curr AudioParams, alpha float64) AudioParams {
	a := float32(Clamp01(alpha))
	return AudioParams{
		Volume:    prev.Volume + a*(curr.Volume-prev.Volume),
		LeftGain:  prev.LeftGain + a*(curr.LeftGain-prev.LeftGain),
		RightGain: prev.RightGain + a*(curr.RightGain-prev.RightGain),
	}
}

// ApplyRamp linearly ramps the first min(samples, len(buf)) samples from buf[0]
// to target, so the last ramped sample equals target. It is a no-op on an empty
// buffer or a non-positive sample count.
func ApplyRamp(buf []float32, target float32, samples int) {
	ApplyRampWith(buf, target, samples, ease.Linear)
}

// ApplyRampWith is ApplyRamp with a custom easing curve.
func ApplyRampWith(buf []float32, target float32, samples int, easing ease.TweenFunc) {
	if len(buf) == 0 || samples <= 0 {
		return
	}
	n := min(samples, len(buf))
	if n == 1 {
		buf[0] = target
		return
	}
	tw := gween.New(buf[0], target, float32(n-1), easing)
	for i := 0; i < n; i++ {
		buf[i], _ = tw.Set(float32(i))
	}
}

var easings = map[string]ease.TweenFunc{
	"linear":      ease.Linear,
	"in-quad":     ease.InQuad,
	"out-quad":    ease.OutQuad,
	"in-out-quad": ease.InOutQuad,
	"in-sine":     ease.InSine,
	"out-sine":    ease.OutSine,
	"in-out-sine": ease.InOutSine,
}

// Easing looks up a ramp curve by name.
func Easing(name string) (ease.TweenFunc, error) {
	if fn, ok := easings[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown easing %q (valid: %v)", name, EasingNames())
}

// EasingNames lists the names accepted by Easing, sorted.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for k := range easings {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
