// Package demo provides a lightweight reference Simulation for the CLI and for
// end-to-end tests. Its physics is deliberately trivial: every value drifts up
// by DriftPerStep and wraps back to zero above one. It stands in for the real
// radiative and chemical models, which are consumed only through sim.Simulation.
package demo

import (
	"errors"
	"math"
	"sync"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sandbox-radar/radar-sim/sim"
	"github.com/sandbox-radar/radar-sim/sim/interp"
)

// DriftPerStep is added to every cell on each step.
const DriftPerStep = 0.01

// ErrInjectedFailure is returned by Step when failure injection is enabled.
var ErrInjectedFailure = errors.New("demo: injected step failure")

var zAxis = r3.Vec{Z: 1}

type orbiter struct {
	id     int
	radius float64
	speed  float64 // radians per step
	angle  float64
	height float64
	scale  float64
}

// Model is a toy Simulation exporting a grid, orbiting agents and a stereo mix.
// InjectMoisture may be called from any goroutine; the remaining methods are
// called by the simulation driver.
type Model struct {
	shape sim.Shape

	mu        sync.Mutex
	grid      []float32
	orbiters  []orbiter
	steps     int
	failEvery int

	export []float32 // scratch handed to the driver, which copies it
}

// NewModel builds a model whose initial state is derived from seed.
func NewModel(shape sim.Shape, agents int, seed int64) *Model {
	m := &Model{
		shape:  shape,
		grid:   make([]float32, shape.Len()),
		export: make([]float32, shape.Len()),
	}

	fieldRNG := Stream(seed, StreamField)
	cells := shape.Cells()
	for v := 0; v < shape.NVars; v++ {
		offset := fieldRNG.Float64()
		base := v * cells
		for i := 0; i < cells; i++ {
			val := offset + float64(i%1000)/1000
			m.grid[base+i] = float32(val - math.Floor(val))
		}
	}

	agentRNG := Stream(seed, StreamAgents)
	maxRadius := 0.45 * float64(min(shape.NX, shape.NY))
	for i := 0; i < agents; i++ {
		m.orbiters = append(m.orbiters, orbiter{
			id:     i + 1,
			radius: maxRadius * (0.2 + 0.8*agentRNG.Float64()),
			speed:  0.05 + 0.25*agentRNG.Float64(),
			angle:  2 * math.Pi * agentRNG.Float64(),
			height: float64(shape.NZ) * agentRNG.Float64() * 0.1,
			scale:  0.5 + agentRNG.Float64(),
		})
	}
	return m
}

// SetFailEvery makes every nth Step fail without changing state. Zero disables
// failure injection.
func (m *Model) SetFailEvery(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failEvery = n
}

// Step advances the drift and the agent orbits by one tick.
func (m *Model) Step() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.steps++
	if m.failEvery > 0 && m.steps%m.failEvery == 0 {
		return ErrInjectedFailure
	}

	for i, v := range m.grid {
		v += DriftPerStep
		if v > 1 {
			v = 0
		}
		m.grid[i] = v
	}
	for i := range m.orbiters {
		o := &m.orbiters[i]
		o.angle = math.Mod(o.angle+o.speed, 2*math.Pi)
	}
	return nil
}

// ExportFlatGrid returns the grid. The slice is reused by the next export.
func (m *Model) ExportFlatGrid() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.export, m.grid)
	return m.export
}

// ExportAgents returns one transform per orbiter, heading along its orbit.
func (m *Model) ExportAgents() []interp.AgentState {
	m.mu.Lock()
	defer m.mu.Unlock()

	centre := r3.Vec{X: float64(m.shape.NX) / 2, Y: float64(m.shape.NY) / 2}
	out := make([]interp.AgentState, 0, len(m.orbiters))
	for _, o := range m.orbiters {
		place := r3.NewRotation(o.angle, zAxis)
		heading := r3.NewRotation(o.angle+math.Pi/2, zAxis)
		out = append(out, interp.AgentState{
			ID:       o.id,
			Position: r3.Add(centre, place.Rotate(r3.Vec{X: o.radius, Z: o.height})),
			Rotation: quat.Number(heading),
			Scale:    o.scale,
		})
	}
	return out
}

// ExportAudio maps the mean of variable 0 to volume and pans toward the side of
// the grid where agents are concentrated.
func (m *Model) ExportAudio() interp.AudioParams {
	m.mu.Lock()
	defer m.mu.Unlock()

	cells := m.shape.Cells()
	var sum float64
	for _, v := range m.grid[:cells] {
		sum += float64(v)
	}
	volume := float32(sum / float64(cells))

	pan := 0.5
	if len(m.orbiters) > 0 {
		var x float64
		for _, o := range m.orbiters {
			x += math.Cos(o.angle) * o.radius
		}
		maxRadius := 0.45 * float64(min(m.shape.NX, m.shape.NY))
		pan = interp.Clamp01(0.5 + 0.5*x/(float64(len(m.orbiters))*maxRadius))
	}
	return interp.AudioParams{
		Volume:    volume,
		LeftGain:  float32(1 - pan),
		RightGain: float32(pan),
	}
}

// InjectMoisture adds a Gaussian bump to variable 0 centred on the normalised
// position (x, y, z) in [0, 1], raised by lift (also normalised). Values are
// capped at 1.
func (m *Model) InjectMoisture(x, y, z, intensity, lift float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.shape
	cx := x * float64(s.NX-1)
	cy := y * float64(s.NY-1)
	cz := math.Min(z+lift, 1) * float64(s.NZ-1)
	sigma := math.Max(1, 0.05*float64(min(s.NX, s.NY)))
	reach := int(math.Ceil(3 * sigma))

	for k := max(0, int(cz)-reach); k <= min(s.NZ-1, int(cz)+reach); k++ {
		for j := max(0, int(cy)-reach); j <= min(s.NY-1, int(cy)+reach); j++ {
			for i := max(0, int(cx)-reach); i <= min(s.NX-1, int(cx)+reach); i++ {
				d2 := (float64(i)-cx)*(float64(i)-cx) + (float64(j)-cy)*(float64(j)-cy) + (float64(k)-cz)*(float64(k)-cz)
				idx := (k*s.NY+j)*s.NX + i
				v := float64(m.grid[idx]) + intensity*math.Exp(-d2/(2*sigma*sigma))
				m.grid[idx] = float32(math.Min(v, 1))
			}
		}
	}
}

// Steps returns how many times Step has been called, failures included.
func (m *Model) Steps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps
}
