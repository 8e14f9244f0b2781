package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tanema/gween/ease"

	"github.com/sandbox-radar/radar-sim/sim"
	"github.com/sandbox-radar/radar-sim/sim/demo"
)

func TestSummarize_UsesFirstVariable(t *testing.T) {
	shape := sim.Shape{NX: 2, NY: 2, NZ: 1, NVars: 2}
	f := &sim.Frame{Grid: sim.GridFrom(shape, []float32{
		0.1, 0.2, 0.3, 0.6, // variable 0
		9, 9, 9, 9, // variable 1 is ignored
	})}

	st := summarize(f)
	assert.InDelta(t, 0.3, st.mean, 1e-6)
	assert.InDelta(t, 0.1, st.min, 1e-6)
	assert.InDelta(t, 0.6, st.max, 1e-6)
}

func TestStatusSink_ThrottlesLogging(t *testing.T) {
	shape := sim.Shape{NX: 1, NY: 1, NZ: 1, NVars: 1}
	s := newStatusSink(shape, time.Second)
	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 90; i++ {
		s.Present(&sim.Frame{Time: start.Add(time.Duration(i) * time.Second / 60), Grid: sim.NewGrid(shape)})
	}

	assert.Equal(t, 90, s.frames)
	assert.Equal(t, start.Add(time.Second), s.lastLog, "one summary per second of frame time")
}

func TestRenderRamp(t *testing.T) {
	assert.Equal(t, []float32{5, 5, 5}, renderRamp(5, 9, 3, 0, ease.Linear), "zero samples leaves the buffer")
	assert.Equal(t, []float32{9, 5, 5}, renderRamp(5, 9, 3, 1, ease.Linear))
	assert.Empty(t, renderRamp(5, 9, 0, 4, ease.Linear))
	assert.Equal(t, "1 2.5", formatRamp([]float32{1, 2.5}))
}

func TestInjectMoisture_StopsWithContext(t *testing.T) {
	shape := sim.Shape{NX: 8, NY: 8, NZ: 2, NVars: 1}
	model := demo.NewModel(shape, 0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		injectMoisture(ctx, model, time.Millisecond, 1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("injectMoisture did not return after cancellation")
	}
}
