package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sandbox-radar/radar-sim/sim"
	"github.com/sandbox-radar/radar-sim/sim/demo"
)

// statusSink is the CLI's stand-in for a renderer. It summarises the
// interpolated frames it receives at most once per period.
type statusSink struct {
	shape   sim.Shape
	period  time.Duration
	lastLog time.Time
	frames  int
	log     *logrus.Entry
}

func newStatusSink(shape sim.Shape, period time.Duration) *statusSink {
	return &statusSink{shape: shape, period: period, log: logrus.WithField("sink", "status")}
}

// Present runs on the render goroutine.
func (s *statusSink) Present(f *sim.Frame) {
	s.frames++
	if !s.lastLog.IsZero() && f.Time.Sub(s.lastLog) < s.period {
		return
	}
	s.lastLog = f.Time

	st := summarize(f)
	s.log.WithFields(logrus.Fields{
		"generation": f.Generation,
		"alpha":      f.Alpha,
		"frames":     s.frames,
		"agents":     len(f.Agents),
		"volume":     f.Audio.Volume,
	}).Infof("Field 0: mean %.4f, min %.4f, max %.4f", st.mean, st.min, st.max)
}

type fieldStats struct {
	mean, min, max float64
}

// summarize computes stats over variable 0 of the frame's grid.
func summarize(f *sim.Frame) fieldStats {
	v0 := f.Grid.Var(0)
	if len(v0) == 0 {
		return fieldStats{}
	}
	st := fieldStats{min: float64(v0[0]), max: float64(v0[0])}
	var sum float64
	for _, x := range v0 {
		v := float64(x)
		sum += v
		st.min = min(st.min, v)
		st.max = max(st.max, v)
	}
	st.mean = sum / float64(len(v0))
	return st
}

// injectMoisture drops a moisture bump at a random spot every period until ctx
// is done.
func injectMoisture(ctx context.Context, model *demo.Model, period time.Duration, seed int64) {
	rng := demo.Stream(seed, demo.StreamMoisture)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			x, y := rng.Float64(), rng.Float64()
			model.InjectMoisture(x, y, 0, 0.5, 0.1)
			logrus.Debugf("Injected moisture at (%.2f, %.2f)", x, y)
		}
	}
}
