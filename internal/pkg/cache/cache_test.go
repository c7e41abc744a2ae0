package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type span struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func TestCache_LocalTierRoundTrip(t *testing.T) {
	c := New[[]span](Options{TTL: time.Minute})
	defer c.Close()

	_, ok := c.Get("booked:1")
	assert.False(t, ok)

	want := []span{{Start: "2025-06-10", End: "2025-06-15"}}
	c.Set("booked:1", want)

	got, ok := c.Get("booked:1")
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCache_EmptySliceIsAHit(t *testing.T) {
	c := New[[]span](Options{})
	defer c.Close()

	c.Set("booked:2", []span{})
	got, ok := c.Get("booked:2")
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	c := New[int](Options{TTL: time.Millisecond})
	defer c.Close()

	c.Set("k", 7)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_GenerationBumpsPerName(t *testing.T) {
	c := New[int](Options{})
	defer c.Close()

	gen, ok := c.Generation("booked:1")
	assert.True(t, ok)
	assert.Zero(t, gen)

	c.Bump("booked:1")
	c.Bump("booked:1")
	gen, _ = c.Generation("booked:1")
	assert.Equal(t, uint64(2), gen)

	other, _ := c.Generation("booked:2")
	assert.Zero(t, other)
}
