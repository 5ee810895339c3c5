package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/roach88/branchless/internal/store"
)

// Clock issues the seqs that order the run log. A clock positioned at n
// issues n+1 next; seq 0 is never issued, so 0 can mean "empty log".
type Clock struct {
	last atomic.Int64
}

// NewClockAt returns a clock positioned at after. Pass 0 for a fresh log,
// the store's last seq to append to it, or a run's seq minus one to
// reissue that run's seqs.
func NewClockAt(after int64) *Clock {
	c := &Clock{}
	c.last.Store(after)
	return c
}

// ResumeClock positions a clock after the last seq recorded in st, so new
// runs extend the log without reusing a seq.
func ResumeClock(ctx context.Context, st *store.Store) (*Clock, error) {
	last, err := st.GetLastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	return NewClockAt(last), nil
}

// Next issues the next seq.
func (c *Clock) Next() int64 {
	return c.last.Add(1)
}

// Last returns the most recently issued seq, or the starting position if
// none has been issued.
func (c *Clock) Last() int64 {
	return c.last.Load()
}
