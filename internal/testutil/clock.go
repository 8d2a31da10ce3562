package testutil

import (
	"fmt"
	"sync"
	"time"
)

// StubClock returns a fixed time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2026-03-01 12:00:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator returns sequential IDs: "call-1", "call-2", etc.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("call-%d", g.counter)
}

// StubBlocks is a block source the test moves by hand.
type StubBlocks struct {
	mu     sync.Mutex
	height uint64
	err    error
}

// NewStubBlocks starts the chain at height.
func NewStubBlocks(height uint64) *StubBlocks {
	return &StubBlocks{height: height}
}

func (b *StubBlocks) Height() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.height, b.err
}

// Advance mines n empty blocks.
func (b *StubBlocks) Advance(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.height += n
}

// Fail makes Height return err until cleared with nil.
func (b *StubBlocks) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}
