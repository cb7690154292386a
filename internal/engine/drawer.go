package engine

import (
	"math/rand"
	"sync"

	"binary-trader/internal/models"
)

// Drawer produces the market direction a trade is resolved against.
type Drawer interface {
	Draw() models.Direction
}

// RandomDrawer draws up or down with independent 50% probability.
type RandomDrawer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDrawer creates a RandomDrawer seeded with seed.
func NewRandomDrawer(seed int64) *RandomDrawer {
	return &RandomDrawer{rng: rand.New(rand.NewSource(seed))}
}

// Draw returns up when a uniform draw falls below one half.
func (d *RandomDrawer) Draw() models.Direction {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rng.Float64() < 0.5 {
		return models.DirectionUp
	}
	return models.DirectionDown
}

// SequenceDrawer replays a fixed sequence of directions, cycling when exhausted.
type SequenceDrawer struct {
	mu   sync.Mutex
	seq  []models.Direction
	next int
}

// Sequence returns a Drawer that yields dirs in order, repeating.
// With no arguments it always draws up.
func Sequence(dirs ...models.Direction) *SequenceDrawer {
	if len(dirs) == 0 {
		dirs = []models.Direction{models.DirectionUp}
	}
	return &SequenceDrawer{seq: dirs}
}

// Draw returns the next direction in the sequence.
func (d *SequenceDrawer) Draw() models.Direction {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir := d.seq[d.next%len(d.seq)]
	d.next++
	return dir
}

// Drawn returns how many directions have been drawn.
func (d *SequenceDrawer) Drawn() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next
}
