package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandbox-radar/radar-sim/sim/interp"
)

// Snapshot is one authoritative generation of simulation output. The three
// families are published together so a reader can never pair a grid from one
// step with agents from another.
type Snapshot struct {
	Grid   Grid
	Agents []interp.AgentState
	Audio  interp.AudioParams
}

// EmptySnapshot is the sentinel returned before the first publish: a zeroed
// grid of the given shape, no agents and silent audio.
func EmptySnapshot(shape Shape) Snapshot {
	return Snapshot{Grid: NewGrid(shape)}
}

// Pair is the unit readers observe: the two latest generations and the time the
// current one was published. Generation 0 means nothing has been published.
type Pair[T any] struct {
	Previous   T
	Current    T
	Stamp      time.Time
	Generation uint64
}

// Published reports whether the pair holds published data rather than the
// empty sentinel.
func (p Pair[T]) Published() bool { return p.Generation > 0 }

// Store is a double buffer holding the previous and current generation of T.
//
// Writers replace the whole pair under the lock; readers copy a pointer under a
// read lock. Neither side ever holds the lock while doing real work, so a slow
// step never stalls a render tick and vice versa. Values handed to Publish are
// retained, not copied: callers must not mutate them afterwards.
type Store[T any] struct {
	clock Clock

	mu     sync.RWMutex
	pair   *Pair[T]
	notify chan struct{} // closed and replaced on every publish

	fresh atomic.Bool
}

// NewStore returns a store whose slots both hold zero until the first publish.
func NewStore[T any](zero T, clock Clock) *Store[T] {
	if clock == nil {
		clock = RealClock{}
	}
	return &Store[T]{
		clock:  clock,
		pair:   &Pair[T]{Previous: zero, Current: zero},
		notify: make(chan struct{}),
	}
}

// Publish makes v the current generation and demotes the old current to
// previous, as one indivisible update. Waiters are woken.
func (s *Store[T]) Publish(v T) Pair[T] {
	now := s.clock.Now()
	s.mu.Lock()
	old := s.pair
	p := &Pair[T]{Previous: old.Current, Current: v, Stamp: now, Generation: old.Generation + 1}
	s.swapLocked(p)
	s.mu.Unlock()
	return *p
}

// Seed fills both slots with v. It is used for the very first export so the
// first frames do not blend in from the empty sentinel.
func (s *Store[T]) Seed(v T) Pair[T] {
	now := s.clock.Now()
	s.mu.Lock()
	p := &Pair[T]{Previous: v, Current: v, Stamp: now, Generation: s.pair.Generation + 1}
	s.swapLocked(p)
	s.mu.Unlock()
	return *p
}

func (s *Store[T]) swapLocked(p *Pair[T]) {
	s.pair = p
	s.fresh.Store(true)
	close(s.notify)
	s.notify = make(chan struct{})
}

// ReadLatestPair returns the latest consistent pair. It never blocks for longer
// than a concurrent pointer swap.
func (s *Store[T]) ReadLatestPair() Pair[T] {
	s.mu.RLock()
	p := s.pair
	s.mu.RUnlock()
	return *p
}

// HasNewData reports whether a publish happened since the flag was last
// consumed.
func (s *Store[T]) HasNewData() bool {
	return s.fresh.Load()
}

// ConsumeNewData clears the availability flag and reports whether it was set.
func (s *Store[T]) ConsumeNewData() bool {
	return s.fresh.Swap(false)
}

// Wait blocks until a generation newer than after is published or ctx is done.
// On cancellation it returns the latest pair alongside ctx.Err().
func (s *Store[T]) Wait(ctx context.Context, after uint64) (Pair[T], error) {
	for {
		s.mu.RLock()
		p, ch := s.pair, s.notify
		s.mu.RUnlock()
		if p.Generation > after {
			return *p, nil
		}
		select {
		case <-ctx.Done():
			return *p, ctx.Err()
		case <-ch:
		}
	}
}
