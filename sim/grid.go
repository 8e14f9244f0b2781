package sim

import "fmt"

// Shape is the fixed layout of a grid snapshot: NVars stacked 3-D fields of
// NX*NY*NZ cells each.
type Shape struct {
	NX    int `yaml:"nx"`
	NY    int `yaml:"ny"`
	NZ    int `yaml:"nz"`
	NVars int `yaml:"nvars"`
}

// Cells returns the number of cells in one variable.
func (s Shape) Cells() int { return s.NX * s.NY * s.NZ }

// Len returns the flat buffer length for the whole grid.
func (s Shape) Len() int { return s.NVars * s.Cells() }

// Validate rejects non-positive dimensions.
func (s Shape) Validate() error {
	if s.NX <= 0 || s.NY <= 0 || s.NZ <= 0 || s.NVars <= 0 {
		return fmt.Errorf("grid shape must be positive in every dimension, got %v", s)
	}
	return nil
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%dx%d", s.NVars, s.NX, s.NY, s.NZ)
}

// Grid is one generation of the scalar fields. Data is variable-major: variable
// v occupies Data[v*Cells() : (v+1)*Cells()], and within a variable x varies
// fastest, then y, then z. A published Grid must not be mutated.
type Grid struct {
	Shape Shape
	Data  []float32
}

// NewGrid allocates a zeroed grid.
func NewGrid(shape Shape) Grid {
	return Grid{Shape: shape, Data: make([]float32, shape.Len())}
}

// GridFrom copies src into a new grid of the given shape. src must hold exactly
// shape.Len() values.
func GridFrom(shape Shape, src []float32) Grid {
	if len(src) != shape.Len() {
		panic(fmt.Sprintf("sim: exported grid has %d values, shape %v needs %d", len(src), shape, shape.Len()))
	}
	g := NewGrid(shape)
	copy(g.Data, src)
	return g
}

// Var returns the slice backing variable v.
func (g Grid) Var(v int) []float32 {
	n := g.Shape.Cells()
	return g.Data[v*n : (v+1)*n]
}

// Index returns the flat offset of cell (x, y, z) in variable v.
func (g Grid) Index(v, x, y, z int) int {
	s := g.Shape
	return v*s.Cells() + (z*s.NY+y)*s.NX + x
}

// At returns the value of cell (x, y, z) in variable v.
func (g Grid) At(v, x, y, z int) float32 {
	return g.Data[g.Index(v, x, y, z)]
}
