package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sandbox-radar/radar-sim/sim/interp"
)

var epoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// smallConfig returns a validated config over a tiny grid.
func smallConfig(shape Shape, interval time.Duration) Config {
	cfg := DefaultConfig()
	cfg.Shape = shape
	cfg.Interval = interval
	return cfg
}

// counterSim stamps its step counter into every cell, so any reader can tell
// which generation a buffer came from and whether it is torn.
type counterSim struct {
	mu      sync.Mutex
	shape   Shape
	counter float32
	fail    map[int]error // step number -> error returned
	panics  map[int]bool  // step number -> panic instead
	calls   int
	onStep  func() // runs at the start of every Step
	agents  []interp.AgentState
	audio   interp.AudioParams
}

func newCounterSim(shape Shape) *counterSim {
	return &counterSim{shape: shape, fail: map[int]error{}, panics: map[int]bool{}}
}

var errBoom = errors.New("boom")

func (s *counterSim) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.onStep != nil {
		s.onStep()
	}
	if s.panics[s.calls] {
		panic("model diverged")
	}
	if err := s.fail[s.calls]; err != nil {
		return err
	}
	s.counter++
	return nil
}

func (s *counterSim) ExportFlatGrid() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float32, s.shape.Len())
	for i := range out {
		out[i] = s.counter
	}
	return out
}

func (s *counterSim) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// agentSim adds agent and audio exports on top of counterSim.
type agentSim struct {
	*counterSim
}

func (s agentSim) ExportAgents() []interp.AgentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interp.AgentState(nil), s.agents...)
}

func (s agentSim) ExportAudio() interp.AudioParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// frameRecorder is a Sink that keeps copies of what it was shown.
type frameRecorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *frameRecorder) Present(f *Frame) {
	cp := *f
	cp.Grid.Data = append([]float32(nil), f.Grid.Data...)
	cp.Agents = append([]interp.AgentState(nil), f.Agents...)
	r.mu.Lock()
	r.frames = append(r.frames, cp)
	r.mu.Unlock()
}

func (r *frameRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *frameRecorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

// testContext stands in for t.Context (Go 1.24+): a context cancelled when
// the test finishes.
func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
