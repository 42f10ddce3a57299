package testutil

import (
	"fmt"
	"sync"
	"time"

	"keksly-go/internal/keksly"
)

// FixedTime is the instant FixedClock reports.
var FixedTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// FixedTimestamp is the history timestamp recorded for a decision made at
// FixedTime.
const FixedTimestamp = "2024-01-15T10:30:00.000Z"

// StubClock is a keksly.Clock that only moves when told to. Cookie expiry
// tests drive it with Advance.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to FixedTime.
func FixedClock() *StubClock {
	return NewStubClock(FixedTime)
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator mints visitor uids "id-1", "id-2", ... in order, so a
// reset that mints a new identifier is visible as the next number.
type StubIDGenerator struct {
	mu     sync.Mutex
	minted int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.minted++
	return fmt.Sprintf("id-%d", g.minted)
}

// Minted reports how many uids have been handed out.
func (g *StubIDGenerator) Minted() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.minted
}

var (
	_ keksly.Clock       = (*StubClock)(nil)
	_ keksly.IDGenerator = (*StubIDGenerator)(nil)
)
