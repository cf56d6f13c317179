package util

import (
	"math"
	"sync/atomic"
)

// Sequence hands out monotonically increasing int64 ordinals, wrapping back
// to zero at the top of the range. Used for frame numbering and synthetic
// timestamps.
//
type Sequence struct {
	nextValue int64
}

func NewSequence(nextValue int64) *Sequence {
	return &Sequence{nextValue: nextValue - 1}
}

func (self *Sequence) ResetTo(nextValue int64) {
	atomic.StoreInt64(&self.nextValue, nextValue-1)
}

func (self *Sequence) Next() int64 {
	atomic.CompareAndSwapInt64(&self.nextValue, math.MaxInt64, -1)
	return atomic.AddInt64(&self.nextValue, 1)
}
