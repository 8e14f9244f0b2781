package sim

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sandbox-radar/radar-sim/sim/interp"
)

// statsEveryFrames is how often the render loop logs a summary (10 s at 60 Hz).
const statsEveryFrames = 600

// Frame is one presented render tick.
type Frame struct {
	Generation uint64    // generation of the current snapshot blended toward
	Alpha      float64   // blend factor actually used, in [0, 1]
	Time       time.Time // tick start
	Grid       Grid
	Agents     []interp.AgentState
	Audio      interp.AudioParams
}

// Sink receives every rendered frame on the render goroutine. The frame and
// its buffers are reused by the next tick; a sink that keeps data must copy it.
type Sink interface {
	Present(f *Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f *Frame)

// Present calls fn(f).
func (fn SinkFunc) Present(f *Frame) { fn(f) }

type discardSink struct{}

func (discardSink) Present(*Frame) {}

// RenderDriver samples the Store at a fixed rate and presents interpolated
// frames.
//
// Pacing is a plain residual sleep: each tick sleeps FramePeriod minus its own
// duration. Overruns are not paid back on later ticks, so the long-run rate
// drifts slightly below the target under load.
type RenderDriver struct {
	store    *Store[Snapshot]
	sink     Sink
	shape    Shape
	interval time.Duration
	period   time.Duration
	pairing  interp.Pairing
	clock    Clock
	log      *logrus.Entry

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   atomic.Bool

	frame     Frame // owned by the loop goroutine
	frames    atomic.Uint64
	lastFrame atomic.Int64  // nanoseconds
	lastAlpha atomic.Uint64 // math.Float64bits
}

// NewRenderDriver reads from store and presents into sink. A nil sink discards
// frames; a nil store panics.
func NewRenderDriver(store *Store[Snapshot], sink Sink, cfg Config, clock Clock, log *logrus.Entry) *RenderDriver {
	if store == nil {
		panic("sim: NewRenderDriver requires a store")
	}
	if sink == nil {
		sink = discardSink{}
	}
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = logrus.WithField("driver", "render")
	}
	return &RenderDriver{
		store:    store,
		sink:     sink,
		shape:    cfg.Shape,
		interval: cfg.Interval,
		period:   cfg.FramePeriod(),
		pairing:  cfg.PairingMode(),
		clock:    clock,
		log:      log,
	}
}

// Start launches the render loop. Calling Start on a running driver does
// nothing.
func (d *RenderDriver) Start() {
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
	d.log.Infof("Render loop started (%.0f FPS target)", float64(time.Second)/float64(d.period))
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (d *RenderDriver) Stop() {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()
	if !d.running.Load() {
		return
	}
	d.cancel()
	d.wg.Wait()
	d.running.Store(false)
	d.log.Info("Render loop stopped")
}

// IsRunning reports whether the loop goroutine is live.
func (d *RenderDriver) IsRunning() bool { return d.running.Load() }

// Frames counts presented frames.
func (d *RenderDriver) Frames() uint64 { return d.frames.Load() }

// LastFrameDurationMs is the render time of the most recent tick, excluding
// the pacing sleep.
func (d *RenderDriver) LastFrameDurationMs() float64 {
	return float64(d.lastFrame.Load()) / float64(time.Millisecond)
}

// LastAlpha is the blend factor of the most recent tick.
func (d *RenderDriver) LastAlpha() float64 {
	return math.Float64frombits(d.lastAlpha.Load())
}

// Alpha is the fractional progress from pair.Previous to pair.Current at now,
// clamped to [0, 1]. Once a full interval has passed without a new publish the
// blend stays frozen on the current snapshot.
func (d *RenderDriver) Alpha(pair Pair[Snapshot], now time.Time) float64 {
	if !pair.Published() {
		return 0
	}
	return interp.Clamp01(float64(now.Sub(pair.Stamp)) / float64(d.interval))
}

// InterpolatedGrid returns a freshly allocated grid blended for time now.
func (d *RenderDriver) InterpolatedGrid(now time.Time) Grid {
	out := NewGrid(d.shape)
	d.InterpolateGridInto(out.Data, now)
	return out
}

// InterpolateGridInto blends the latest pair into dst for time now and returns
// the alpha used. dst must be Shape.Len() long.
func (d *RenderDriver) InterpolateGridInto(dst []float32, now time.Time) float64 {
	pair := d.store.ReadLatestPair()
	alpha := d.Alpha(pair, now)
	interp.Field(dst, pair.Previous.Grid.Data, pair.Current.Grid.Data, alpha)
	return alpha
}

// InterpolatedAgents returns the agent transforms blended for time now.
func (d *RenderDriver) InterpolatedAgents(now time.Time) []interp.AgentState {
	pair := d.store.ReadLatestPair()
	return interp.Agents(nil, pair.Previous.Agents, pair.Current.Agents, d.Alpha(pair, now), d.pairing)
}

// InterpolatedAudio returns the mixer settings blended for time now.
func (d *RenderDriver) InterpolatedAudio(now time.Time) interp.AudioParams {
	pair := d.store.ReadLatestPair()
	return interp.Audio(pair.Previous.Audio, pair.Current.Audio, d.Alpha(pair, now))
}

// Render builds a complete frame for time now into f, reusing f's buffers.
func (d *RenderDriver) Render(f *Frame, now time.Time) {
	pair := d.store.ReadLatestPair()
	alpha := d.Alpha(pair, now)

	if len(f.Grid.Data) != d.shape.Len() {
		f.Grid = NewGrid(d.shape)
	}
	interp.Field(f.Grid.Data, pair.Previous.Grid.Data, pair.Current.Grid.Data, alpha)
	f.Agents = interp.Agents(f.Agents, pair.Previous.Agents, pair.Current.Agents, alpha, d.pairing)
	f.Audio = interp.Audio(pair.Previous.Audio, pair.Current.Audio, alpha)
	f.Generation = pair.Generation
	f.Alpha = alpha
	f.Time = now
}

func (d *RenderDriver) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		start := d.clock.Now()
		d.Render(&d.frame, start)
		d.sink.Present(&d.frame)
		elapsed := d.clock.Now().Sub(start)

		d.lastFrame.Store(int64(elapsed))
		d.lastAlpha.Store(math.Float64bits(d.frame.Alpha))
		if n := d.frames.Add(1); n%statsEveryFrames == 0 {
			d.log.WithFields(logrus.Fields{
				"frames":     n,
				"generation": d.frame.Generation,
				"alpha":      d.frame.Alpha,
			}).Infof("Render loop: frame time %.2f ms", d.LastFrameDurationMs())
		}

		if err := d.clock.Sleep(ctx, max(0, d.period-elapsed)); err != nil {
			return
		}
	}
}
