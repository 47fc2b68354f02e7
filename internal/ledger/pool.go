package ledger

import (
	"github.com/gammazero/deque"

	"github.com/thanhnp/poa-ledger/internal/models"
)

// Pool is the FIFO of proposed blocks waiting for confirmation. It is not
// safe for concurrent use on its own; the ledger guards it with its mutex.
type Pool struct {
	queue *deque.Deque
}

// NewPool creates a new, empty pool.
func NewPool() *Pool {
	return &Pool{
		queue: deque.New(),
	}
}

// Push appends a candidate at the back of the pool.
func (p *Pool) Push(candidate models.Block) {
	p.queue.PushBack(candidate)
}

// Front returns the oldest candidate without removing it.
func (p *Pool) Front() models.Block {
	return p.queue.Front().(models.Block)
}

// Back returns the newest candidate, if any.
func (p *Pool) Back() (models.Block, bool) {
	if p.queue.Len() == 0 {
		return models.Block{}, false
	}
	return p.queue.Back().(models.Block), true
}

// PopFront removes and returns the oldest candidate.
func (p *Pool) PopFront() models.Block {
	return p.queue.PopFront().(models.Block)
}

// Len returns the number of pending candidates.
func (p *Pool) Len() int {
	return p.queue.Len()
}

// Items returns copies of the pending candidates in submission order.
func (p *Pool) Items() []models.Block {
	items := make([]models.Block, 0, p.queue.Len())
	for i := 0; i < p.queue.Len(); i++ {
		items = append(items, p.queue.At(i).(models.Block).Copy())
	}
	return items
}

// Clear drops every pending candidate.
func (p *Pool) Clear() {
	p.queue.Clear()
}
