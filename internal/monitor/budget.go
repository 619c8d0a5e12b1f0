package monitor

import "time"

// Budget tracks a shared time allowance that shrinks as sequential wait
// stages consume it. Each stage reads Remaining at entry; a slow earlier
// stage starves later ones.
type Budget struct {
	start time.Time
	total time.Duration
}

// NewBudget starts a budget of the given total, measured from now.
func NewBudget(total time.Duration) Budget {
	return Budget{start: time.Now(), total: total}
}

// Elapsed returns the time consumed since the budget started.
func (b Budget) Elapsed() time.Duration {
	return time.Since(b.start)
}

// Remaining returns the unconsumed allowance. It may be negative.
func (b Budget) Remaining() time.Duration {
	return b.total - b.Elapsed()
}

// Expired reports whether the allowance is used up.
func (b Budget) Expired() bool {
	return b.Remaining() <= 0
}
