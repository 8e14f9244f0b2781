package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"github.com/sandbox-radar/radar-sim/sim"
)

var smallShape = sim.Shape{NX: 9, NY: 9, NZ: 3, NVars: 2}

func TestModel_StepDriftsAndWraps(t *testing.T) {
	m := NewModel(smallShape, 0, 1)
	before := append([]float32(nil), m.ExportFlatGrid()...)

	require.NoError(t, m.Step())
	after := m.ExportFlatGrid()

	for i, v := range before {
		want := v + DriftPerStep
		if want > 1 {
			want = 0
		}
		assert.Equal(t, want, after[i], "cell %d", i)
	}
}

func TestModel_ValuesStayInUnitRange(t *testing.T) {
	m := NewModel(smallShape, 3, 5)
	for step := 0; step < 150; step++ {
		require.NoError(t, m.Step())
	}
	for i, v := range m.ExportFlatGrid() {
		assert.True(t, v >= 0 && v <= 1, "cell %d = %v", i, v)
	}
}

func TestModel_SameSeedSameState(t *testing.T) {
	a := NewModel(smallShape, 4, 42)
	b := NewModel(smallShape, 4, 42)
	c := NewModel(smallShape, 4, 43)

	assert.Equal(t, a.ExportFlatGrid(), b.ExportFlatGrid())
	assert.Equal(t, a.ExportAgents(), b.ExportAgents())
	assert.NotEqual(t, a.ExportFlatGrid(), c.ExportFlatGrid())
}

func TestModel_AgentsHaveUnitRotations(t *testing.T) {
	m := NewModel(smallShape, 8, 7)
	for step := 0; step < 5; step++ {
		agents := m.ExportAgents()
		require.Len(t, agents, 8)
		for i, a := range agents {
			assert.Equal(t, i+1, a.ID)
			assert.InDelta(t, 1, quat.Abs(a.Rotation), 1e-9)
			assert.Greater(t, a.Scale, 0.0)
			assert.True(t, a.Position.X >= 0 && a.Position.X <= float64(smallShape.NX), "x=%v", a.Position.X)
			assert.True(t, a.Position.Y >= 0 && a.Position.Y <= float64(smallShape.NY), "y=%v", a.Position.Y)
		}
		require.NoError(t, m.Step())
	}
}

func TestModel_AudioGainsArePanned(t *testing.T) {
	for _, agents := range []int{0, 5} {
		m := NewModel(smallShape, agents, 11)
		a := m.ExportAudio()
		assert.True(t, a.Volume >= 0 && a.Volume <= 1, "volume %v", a.Volume)
		assert.InDelta(t, 1, a.LeftGain+a.RightGain, 1e-6)
		if agents == 0 {
			assert.Equal(t, float32(0.5), a.LeftGain)
		}
	}
}

func TestModel_InjectMoisture(t *testing.T) {
	m := NewModel(smallShape, 0, 3)
	before := append([]float32(nil), m.ExportFlatGrid()...)

	m.InjectMoisture(0.5, 0.5, 0, 0.5, 0)
	after := m.ExportFlatGrid()

	centre := (0*smallShape.NY+4)*smallShape.NX + 4
	assert.InDelta(t, min(float64(before[centre])+0.5, 1), float64(after[centre]), 1e-6)

	cells := smallShape.Cells()
	for i := 0; i < cells; i++ {
		assert.GreaterOrEqual(t, after[i], before[i], "cell %d decreased", i)
		assert.LessOrEqual(t, after[i], float32(1))
	}
	assert.Equal(t, before[cells:], after[cells:], "only variable 0 receives moisture")
}

func TestModel_FailureInjection(t *testing.T) {
	m := NewModel(smallShape, 0, 9)
	m.SetFailEvery(2)

	require.NoError(t, m.Step())
	held := append([]float32(nil), m.ExportFlatGrid()...)

	err := m.Step()
	assert.ErrorIs(t, err, ErrInjectedFailure)
	assert.Equal(t, held, m.ExportFlatGrid(), "a failed step must not change state")
	assert.Equal(t, 2, m.Steps())
}

func TestModel_DrivesAnEngine(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Shape = smallShape
	cfg.Interval = 5 * time.Millisecond
	cfg.FrameRate = 200
	m := NewModel(smallShape, 3, 1)

	e, err := sim.NewEngine(m, nil, cfg, nil)
	require.NoError(t, err)
	e.Start()
	pair, err := e.Store().Wait(testContext(t), 3)
	require.NoError(t, err)
	e.Stop()

	assert.Len(t, pair.Current.Agents, 3)
	assert.Len(t, pair.Current.Grid.Data, smallShape.Len())
	assert.NotSame(t, &m.export[0], &pair.Current.Grid.Data[0], "published grid must be a copy")

	frame := e.InterpolatedGrid(time.Now())
	for i, v := range frame.Data {
		assert.True(t, v >= 0 && v <= 1, "cell %d = %v", i, v)
	}
	assert.Len(t, e.InterpolatedAgents(time.Now()), 3)
}

// testContext stands in for t.Context (Go 1.24+): a context cancelled when
// the test finishes.
func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
