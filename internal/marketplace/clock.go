package marketplace

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock supplies the current block height. Deadlines are expressed in the same unit.
type Clock interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

// WallClock derives a height from elapsed time: one block per Interval since Genesis.
type WallClock struct {
	Genesis  time.Time
	Interval time.Duration
	Now      func() time.Time
}

func (w WallClock) CurrentHeight(context.Context) (uint64, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	elapsed := now().Sub(w.Genesis)
	if elapsed < 0 || w.Interval <= 0 {
		return 0, nil
	}
	return uint64(elapsed / w.Interval), nil
}

// ManualClock is advanced explicitly. Safe for concurrent use.
type ManualClock struct {
	height atomic.Uint64
}

func NewManualClock(height uint64) *ManualClock {
	c := &ManualClock{}
	c.height.Store(height)
	return c
}

func (m *ManualClock) CurrentHeight(context.Context) (uint64, error) {
	return m.height.Load(), nil
}

func (m *ManualClock) Advance(blocks uint64) uint64 {
	return m.height.Add(blocks)
}
