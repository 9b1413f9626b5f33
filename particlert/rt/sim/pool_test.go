package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolZeroSlotsAreDead(t *testing.T) {
	pool := NewPool(3)
	for i := 0; i < pool.Capacity(); i++ {
		assert.False(t, pool.Slot(i).Alive(), "slot %d", i)
	}
}

func TestPoolClaimCursorContinues(t *testing.T) {
	pool := NewPool(4)

	budget := pool.Capacity()
	p, ok := pool.claim(&budget)
	require.True(t, ok)
	assert.Same(t, pool.Slot(0), p)
	p.MaxLife = 1

	// A new frame gets a fresh budget but keeps scanning from where it stopped.
	budget = pool.Capacity()
	p, ok = pool.claim(&budget)
	require.True(t, ok)
	assert.Same(t, pool.Slot(1), p)
	assert.Equal(t, 3, budget)
}

func TestPoolClaimWrapsAround(t *testing.T) {
	pool := NewPool(3)
	pool.Slot(1).MaxLife = 1
	pool.Slot(2).MaxLife = 1
	pool.cursor = 1

	budget := pool.Capacity()
	p, ok := pool.claim(&budget)
	require.True(t, ok)
	assert.Same(t, pool.Slot(0), p)
	assert.Equal(t, 1, pool.cursor)
}

func TestPoolClaimExhausted(t *testing.T) {
	pool := NewPool(3)
	for i := 0; i < pool.Capacity(); i++ {
		pool.Slot(i).MaxLife = 1
	}

	budget := pool.Capacity()
	p, ok := pool.claim(&budget)
	assert.False(t, ok)
	assert.Nil(t, p)
	assert.Equal(t, 0, budget)
}
