package sweep

import (
	"sync"
	"sync/atomic"
)

// ProgressFunc receives the completed percentage of a run and the number of
// indices done so far.
type ProgressFunc func(pct float64, done uint64)

// Meter counts processed indices and calls a ProgressFunc once for every
// multiple of every that the count reaches, in increasing order. It is safe
// for concurrent use.
type Meter struct {
	done  atomic.Uint64
	total uint64
	every uint64
	fn    ProgressFunc

	mu   sync.Mutex
	last uint64 // highest multiple of every reported, guarded by mu
}

func NewMeter(total, every uint64, fn ProgressFunc) *Meter {
	return &Meter{total: total, every: every, fn: fn}
}

// Add records n more processed indices.
func (m *Meter) Add(n uint64) {
	if m == nil || n == 0 {
		return
	}
	now := m.done.Add(n)
	if m.fn == nil || m.every == 0 {
		return
	}
	if (now-n)/m.every == now/m.every {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another Add may already have reported past now
	for k := m.last + m.every; k <= now; k += m.every {
		m.fn(m.percent(k), k)
		m.last = k
	}
}

// Done returns the number of indices recorded so far.
func (m *Meter) Done() uint64 {
	if m == nil {
		return 0
	}
	return m.done.Load()
}

func (m *Meter) percent(done uint64) float64 {
	if m.total == 0 {
		return 100
	}
	return float64(done) / float64(m.total) * 100
}

// start reports 0% before any index is processed.
func (m *Meter) start() {
	if m.fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn(0, 0)
}
