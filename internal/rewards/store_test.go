package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribe-fitness/internal/health"
)

type recorded struct{ items []Redemption }

func (r *recorded) RecordRedemption(red Redemption) { r.items = append(r.items, red) }

func TestCatalogOrderingAndLookup(t *testing.T) {
	c := DefaultCatalog()
	items := c.Items()
	require.NotEmpty(t, items)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Cost, items[i].Cost)
	}

	it, ok := c.Lookup(" Protein-Bar ")
	require.True(t, ok)
	assert.Equal(t, 30, it.Cost)

	_, ok = c.Lookup("yacht")
	assert.False(t, ok)
}

func TestRedeem(t *testing.T) {
	catalog := NewCatalog([]Item{
		{ID: "big", Title: "Big", Cost: 30},
		{ID: "small", Title: "Small", Cost: 10},
	})
	state := health.New(health.WithTokens(25))
	rec := &recorded{}
	store := NewStore(catalog, state)
	store.SetRecorder(rec)

	_, err := store.Redeem("big")
	assert.ErrorIs(t, err, ErrInsufficientTokens)
	assert.Equal(t, 25, state.Tokens())

	red, err := store.Redeem("small")
	require.NoError(t, err)
	assert.Equal(t, "small", red.ItemID)
	assert.Equal(t, 10, red.Cost)
	assert.Equal(t, 15, red.BalanceAfter)
	assert.NotEmpty(t, red.ID)
	assert.Equal(t, 15, state.Tokens())

	_, err = store.Redeem("missing")
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, 15, state.Tokens())

	require.Len(t, rec.items, 1)
	assert.Equal(t, red, rec.items[0])
}

func TestRedeemAfterWorkouts(t *testing.T) {
	state := health.New()
	store := NewStore(DefaultCatalog(), state)

	for i := 0; i < 3; i++ {
		state.LogWorkout(map[string]any{"kind": "walk"})
	}
	red, err := store.Redeem("protein-bar")
	require.NoError(t, err)
	assert.Equal(t, 0, red.BalanceAfter)
}
