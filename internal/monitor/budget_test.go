package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBudgetShrinks(t *testing.T) {
	b := NewBudget(time.Second)
	assert.False(t, b.Expired())
	first := b.Remaining()

	time.Sleep(10 * time.Millisecond)
	assert.Less(t, b.Remaining(), first)
	assert.GreaterOrEqual(t, b.Elapsed(), 10*time.Millisecond)
}

func TestBudgetExpiry(t *testing.T) {
	assert.True(t, NewBudget(0).Expired())
	assert.True(t, NewBudget(-time.Second).Expired())

	b := NewBudget(5 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, b.Expired())
	assert.Less(t, b.Remaining(), time.Duration(0), "remaining may go negative")
}
