package demo

import (
	"hash/fnv"
	"math/rand"
)

// Named random streams used by the demo. Each is seeded from the run seed and
// its own name, so drawing more values from one never shifts another.
const (
	StreamField    = "field"    // initial scalar field
	StreamAgents   = "agents"   // orbiter placement
	StreamMoisture = "moisture" // CLI moisture injections
)

// Stream returns a fresh generator for the named stream of a run.
func Stream(seed int64, name string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}
