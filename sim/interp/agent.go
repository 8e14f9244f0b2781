package interp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// slerpLinearThreshold is the |dot| above which two rotations are treated as
// parallel and blended component-wise. Past it sin(theta0) is too close to
// zero for the exact formula.
const slerpLinearThreshold = 0.9995

// AgentState is the transform of one tracked entity in a snapshot.
type AgentState struct {
	ID       int
	Position r3.Vec
	Rotation quat.Number // unit norm
	Scale    float64
}

// Pairing selects how agents of the previous snapshot are matched with agents
// of the current one.
type Pairing int

const (
	// PairByIndex matches prev[i] with curr[i]. Producers must keep the two
	// sequences congruent; output length is the shorter of the two.
	PairByIndex Pairing = iota
	// PairByID matches agents by ID. Agents without a previous state snap to
	// their current state and agents missing from the current snapshot are
	// dropped. Output follows the current ordering.
	PairByID
)

// String returns the configuration name of the pairing mode.
func (p Pairing) String() string {
	switch p {
	case PairByIndex:
		return "index"
	case PairByID:
		return "id"
	default:
		return fmt.Sprintf("Pairing(%d)", int(p))
	}
}

// ParsePairing maps a configuration name to a Pairing. The empty string selects
// PairByIndex.
func ParsePairing(name string) (Pairing, error) {
	switch name {
	case "", "index":
		return PairByIndex, nil
	case "id":
		return PairByID, nil
	default:
		return PairByIndex, fmt.Errorf("unknown agent pairing %q (want \"index\" or \"id\")", name)
	}
}

// Agents blends prev into curr and appends the result to dst[:0], returning the
// extended slice so callers can reuse its backing array across frames.
func Agents(dst, prev, curr []AgentState, alpha float64, mode Pairing) []AgentState {
	a := Clamp01(alpha)
	dst = dst[:0]

	if mode == PairByID {
		index := make(map[int]int, len(prev))
		for i, p := range prev {
			if _, dup := index[p.ID]; !dup {
				index[p.ID] = i
			}
		}
		for _, c := range curr {
			j, ok := index[c.ID]
			if !ok {
				dst = append(dst, c)
				continue
			}
			dst = append(dst, LerpAgent(prev[j], c, a))
		}
		return dst
	}

	n := min(len(prev), len(curr))
	for i := 0; i < n; i++ {
		dst = append(dst, LerpAgent(prev[i], curr[i], a))
	}
	return dst
}

// LerpAgent blends one agent: linear position and scale, spherical rotation.
// The ID is taken from a.
func LerpAgent(a, b AgentState, alpha float64) AgentState {
	t := Clamp01(alpha)
	return AgentState{
		ID:       a.ID,
		Position: r3.Add(a.Position, r3.Scale(t, r3.Sub(b.Position, a.Position))),
		Rotation: Slerp(a.Rotation, b.Rotation, t),
		Scale:    a.Scale + t*(b.Scale-a.Scale),
	}
}

// Slerp interpolates between unit quaternions a and b along the shorter great
// arc. The result has unit norm for every t.
func Slerp(a, b quat.Number, t float64) quat.Number {
	t = Clamp01(t)

	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if dot < 0 {
		// q and -q are the same rotation; flipping b keeps the short way round.
		b = quat.Scale(-1, b)
		dot = -dot
	}

	if dot > slerpLinearThreshold {
		return normalize(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}

	theta0 := math.Acos(dot)
	theta := theta0 * t
	sinTheta0 := math.Sin(theta0)
	sinTheta := math.Sin(theta)
	s0 := math.Cos(theta) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return normalize(quat.Add(quat.Scale(s0, a), quat.Scale(s1, b)))
}

// normalize scales q to unit norm. A zero quaternion becomes the identity.
func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
