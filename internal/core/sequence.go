package core

import (
	"math"
	"sync/atomic"

	"github.com/olyamironova/order-matcher/internal/domain"
)

// Sequencer hands out strictly increasing order ids shared by every book.
// Ids never wrap: once math.MaxUint64 has been issued every further call fails.
type Sequencer struct {
	last atomic.Uint64
}

// NewSequencer creates a sequencer whose first id is start+1.
func NewSequencer(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

func (s *Sequencer) Next() (uint64, error) {
	for {
		cur := s.last.Load()
		if cur == math.MaxUint64 {
			return 0, domain.ErrOrderIDsExhausted
		}
		if s.last.CompareAndSwap(cur, cur+1) {
			return cur + 1, nil
		}
	}
}

// Current returns the last issued id.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}
