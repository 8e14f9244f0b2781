package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sandbox-radar/radar-sim/sim/interp"
)

// Engine owns one simulation pipeline: the store, the simulation driver and the
// render driver. Engines share nothing, so several can run side by side.
type Engine struct {
	ID string

	cfg    Config
	store  *Store[Snapshot]
	sim    *SimDriver
	render *RenderDriver
}

// NewEngine validates cfg and wires model -> store -> sink. A nil clock uses
// wall time; a nil sink discards frames.
func NewEngine(model Simulation, sink Sink, cfg Config, clock Clock) (*Engine, error) {
	if model == nil {
		return nil, errors.New("engine requires a simulation")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if clock == nil {
		clock = RealClock{}
	}

	id := uuid.NewString()
	log := logrus.WithField("instance", id)
	store := NewStore(EmptySnapshot(cfg.Shape), clock)

	return &Engine{
		ID:     id,
		cfg:    cfg,
		store:  store,
		sim:    NewSimDriver(model, store, cfg, clock, log.WithField("driver", "sim")),
		render: NewRenderDriver(store, sink, cfg, clock, log.WithField("driver", "render")),
	}, nil
}

// Start launches both drivers. It is idempotent.
func (e *Engine) Start() {
	e.sim.Start()
	e.render.Start()
}

// Stop halts the render loop, then the simulation loop, waiting for both.
func (e *Engine) Stop() {
	e.render.Stop()
	e.sim.Stop()
}

// IsRunning reports whether both drivers are running.
func (e *Engine) IsRunning() bool {
	return e.sim.IsRunning() && e.render.IsRunning()
}

// Config returns the validated configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Store returns the snapshot store shared by both drivers.
func (e *Engine) Store() *Store[Snapshot] { return e.store }

// SimDriver returns the driver stepping the simulation.
func (e *Engine) SimDriver() *SimDriver { return e.sim }

// RenderDriver returns the driver presenting interpolated frames.
func (e *Engine) RenderDriver() *RenderDriver { return e.render }

// LastFrameDurationMs is the render time of the most recent frame.
func (e *Engine) LastFrameDurationMs() float64 { return e.render.LastFrameDurationMs() }

// CopyCurrentGrid copies the latest authoritative grid into dst, which must be
// exactly Shape.Len() long.
func (e *Engine) CopyCurrentGrid(dst []float32) { e.sim.CopyCurrentGrid(dst) }

// InterpolatedGrid is the grid frame for time now.
func (e *Engine) InterpolatedGrid(now time.Time) Grid { return e.render.InterpolatedGrid(now) }

// InterpolatedAgents is the agent frame for time now.
func (e *Engine) InterpolatedAgents(now time.Time) []interp.AgentState {
	return e.render.InterpolatedAgents(now)
}

// InterpolatedAudio is the audio frame for time now.
func (e *Engine) InterpolatedAudio(now time.Time) interp.AudioParams {
	return e.render.InterpolatedAudio(now)
}
