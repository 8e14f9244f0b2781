package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShape_LenAndString(t *testing.T) {
	s := DefaultShape
	assert.Equal(t, 200*200*30, s.Cells())
	assert.Equal(t, 17*200*200*30, s.Len())
	assert.Equal(t, "17x200x200x30", s.String())
}

func TestShape_Validate(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		ok    bool
	}{
		{"default", DefaultShape, true},
		{"single cell", Shape{NX: 1, NY: 1, NZ: 1, NVars: 1}, true},
		{"zero nx", Shape{NX: 0, NY: 1, NZ: 1, NVars: 1}, false},
		{"negative nz", Shape{NX: 1, NY: 1, NZ: -2, NVars: 1}, false},
		{"no variables", Shape{NX: 4, NY: 4, NZ: 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shape.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGrid_IndexIsVariableMajorXFastest(t *testing.T) {
	// GIVEN a 2-variable 3x2x2 grid filled with its own flat offsets
	shape := Shape{NX: 3, NY: 2, NZ: 2, NVars: 2}
	src := make([]float32, shape.Len())
	for i := range src {
		src[i] = float32(i)
	}
	g := GridFrom(shape, src)

	// THEN x varies fastest, then y, then z, then the variable
	assert.Equal(t, 0, g.Index(0, 0, 0, 0))
	assert.Equal(t, 1, g.Index(0, 1, 0, 0))
	assert.Equal(t, 3, g.Index(0, 0, 1, 0))
	assert.Equal(t, 6, g.Index(0, 0, 0, 1))
	assert.Equal(t, 12, g.Index(1, 0, 0, 0))
	assert.Equal(t, float32(23), g.At(1, 2, 1, 1))
	assert.Equal(t, src[12:], g.Var(1))
}

func TestGridFrom_CopiesAndChecksLength(t *testing.T) {
	src := []float32{1, 2, 3}
	g := GridFrom(tinyShape, src)
	src[0] = 99
	assert.Equal(t, float32(1), g.Data[0], "GridFrom must copy")

	assert.Panics(t, func() { GridFrom(tinyShape, []float32{1, 2}) })
}
