package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sandbox-radar/radar-sim/sim/interp"
)

// Simulation is the external physical model. Step advances it by one model
// tick; ExportFlatGrid returns its state as a flat buffer matching the engine's
// Shape. The driver copies the export, so the model may reuse its buffer.
type Simulation interface {
	Step() error
	ExportFlatGrid() []float32
}

// AgentExporter is implemented by simulations that also track agents.
type AgentExporter interface {
	ExportAgents() []interp.AgentState
}

// AudioExporter is implemented by simulations that drive the audio mix.
type AudioExporter interface {
	ExportAudio() interp.AudioParams
}

// ErrStepPanic marks a step that panicked instead of returning an error.
var ErrStepPanic = errors.New("simulation step panicked")

// SimDriver advances a Simulation on its own goroutine every Interval and
// publishes each result into a Store.
//
// A failing step is logged and counted; the loop keeps going. Stop waits for
// an in-flight step to finish, so steps are never cut short.
type SimDriver struct {
	model     Simulation
	store     *Store[Snapshot]
	shape     Shape
	interval  time.Duration
	maxAgents int
	clock     Clock
	log       *logrus.Entry

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   atomic.Bool

	simTime  atomic.Int64 // nanoseconds of model time
	steps    atomic.Uint64
	failures atomic.Uint64
	lastStep atomic.Int64 // nanoseconds
}

// NewSimDriver wires a model to a store. A nil model or store is a programming
// error and panics. A nil log falls back to the standard logrus logger.
func NewSimDriver(model Simulation, store *Store[Snapshot], cfg Config, clock Clock, log *logrus.Entry) *SimDriver {
	if model == nil || store == nil {
		panic("sim: NewSimDriver requires a simulation and a store")
	}
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = logrus.WithField("driver", "sim")
	}
	return &SimDriver{
		model:     model,
		store:     store,
		shape:     cfg.Shape,
		interval:  cfg.Interval,
		maxAgents: cfg.MaxAgents,
		clock:     clock,
		log:       log,
	}
}

// Start launches the step loop. Calling Start on a running driver does nothing.
func (d *SimDriver) Start() {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()
	if d.running.Load() {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.running.Store(true)
	d.wg.Add(1)
	go d.run(ctx)
	d.log.Infof("Simulation loop started (%v interval)", d.interval)
}

// Stop cancels the loop and blocks until its goroutine has exited. Stopping a
// driver that is not running is a no-op.
func (d *SimDriver) Stop() {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()
	if !d.running.Load() {
		return
	}
	d.cancel()
	d.wg.Wait()
	d.running.Store(false)
	d.log.Info("Simulation loop stopped")
}

// IsRunning reports whether the loop goroutine is live.
func (d *SimDriver) IsRunning() bool { return d.running.Load() }

// SimTime is the model time advanced so far: Interval per successful step.
func (d *SimDriver) SimTime() time.Duration { return time.Duration(d.simTime.Load()) }

// Steps counts successful steps.
func (d *SimDriver) Steps() uint64 { return d.steps.Load() }

// Failures counts steps that returned an error or panicked.
func (d *SimDriver) Failures() uint64 { return d.failures.Load() }

// LastStepDuration is the wall time of the most recent step attempt.
func (d *SimDriver) LastStepDuration() time.Duration { return time.Duration(d.lastStep.Load()) }

// CopyCurrentGrid copies the latest published grid into dst, which must be
// exactly Shape.Len() long.
func (d *SimDriver) CopyCurrentGrid(dst []float32) {
	if len(dst) != d.shape.Len() {
		panic(fmt.Sprintf("sim: CopyCurrentGrid destination has %d values, want %d", len(dst), d.shape.Len()))
	}
	copy(dst, d.store.ReadLatestPair().Current.Grid.Data)
}

func (d *SimDriver) run(ctx context.Context) {
	defer d.wg.Done()

	if !d.store.ReadLatestPair().Published() {
		d.seed()
	}

	for {
		if err := d.clock.Sleep(ctx, d.interval); err != nil {
			return
		}
		d.tick()
	}
}

// seed publishes the model's initial state without stepping it.
func (d *SimDriver) seed() {
	var exp exported
	err := d.guard(func() error {
		exp = d.export()
		return nil
	})
	if err != nil {
		d.log.WithError(err).Error("Initial export failed; starting from an empty grid")
		return
	}
	d.store.Seed(d.snapshot(exp))
}

// tick steps the model once and publishes the result. Errors and panics from
// the model are counted and logged. An export that does not match the
// configured shape is a broken model contract and panics out of the loop.
func (d *SimDriver) tick() {
	start := d.clock.Now()
	var exp exported
	err := d.guard(func() error {
		if err := d.model.Step(); err != nil {
			return err
		}
		exp = d.export()
		return nil
	})
	elapsed := d.clock.Now().Sub(start)
	d.lastStep.Store(int64(elapsed))

	if err != nil {
		n := d.failures.Add(1)
		entry := d.log.WithError(err).WithField("failures", n)
		if errors.Is(err, ErrStepPanic) {
			entry.Error("Simulation step panicked; continuing")
		} else {
			entry.Warn("Simulation step failed; continuing")
		}
		return
	}

	d.store.Publish(d.snapshot(exp))
	d.steps.Add(1)
	simTime := time.Duration(d.simTime.Add(int64(d.interval)))
	d.log.WithFields(logrus.Fields{
		"step":     d.steps.Load(),
		"sim_time": simTime,
	}).Debugf("Simulation step completed in %d ms", elapsed.Milliseconds())
}

// guard runs fn and converts a panic into an ErrStepPanic error.
func (d *SimDriver) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanic, r)
		}
	}()
	return fn()
}

// exported is what the model handed over for one generation. The grid may be
// the model's own buffer and is only valid until the next Step.
type exported struct {
	grid   []float32
	agents []interp.AgentState
	audio  interp.AudioParams
}

// export calls the model's exporters, copying agents and applying the cap.
func (d *SimDriver) export() exported {
	e := exported{grid: d.model.ExportFlatGrid()}
	if ae, ok := d.model.(AgentExporter); ok {
		agents := ae.ExportAgents()
		if d.maxAgents > 0 && len(agents) > d.maxAgents {
			agents = agents[:d.maxAgents]
		}
		e.agents = append([]interp.AgentState(nil), agents...)
	}
	if ae, ok := d.model.(AudioExporter); ok {
		e.audio = ae.ExportAudio()
	}
	return e
}

// snapshot copies an export into a fresh Snapshot. Buffers are never recycled
// because a render tick may still be reading the previous generation. It
// panics if the grid length does not match the configured shape.
func (d *SimDriver) snapshot(e exported) Snapshot {
	return Snapshot{Grid: GridFrom(d.shape, e.grid), Agents: e.agents, Audio: e.audio}
}
