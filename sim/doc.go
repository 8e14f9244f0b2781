// Package sim decouples a slow, authoritative simulation from a fast render
// loop so that a model stepping every few seconds can still drive smooth 60 Hz
// output.
//
// # Reading Guide
//
// Start with these three files to understand the pipeline:
//   - store.go: the double-buffered Store holding the previous and current generation
//   - simdriver.go: the loop that steps a Simulation and publishes each generation
//   - renderdriver.go: the loop that blends the latest pair into frames
//
// # Architecture
//
// Engine owns one Store, one SimDriver and one RenderDriver; engines share no
// state. Blending lives in a sub-package:
//   - sim/interp/: field lerp, agent lerp and slerp, audio blending and gain ramps
//   - sim/demo/: a toy Simulation used by the CLI and end-to-end tests
//
// # Key Interfaces
//
//   - Simulation: Step plus ExportFlatGrid, with optional AgentExporter and AudioExporter
//   - Sink: receives every rendered Frame on the render goroutine
//   - Clock: wall time and sleeps, replaced by ManualClock in tests
package sim
