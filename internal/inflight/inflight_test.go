package inflight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetAndHas(t *testing.T) {
	c := New()
	assert.False(t, c.Has("0xab01"))
	c.Set("0xab01", 30*time.Second)
	assert.True(t, c.Has("0xab01"))
}

func TestDeleteAllowsRetry(t *testing.T) {
	c := New()
	c.Set("0xab01", 30*time.Second)
	c.Delete("0xab01")
	assert.False(t, c.Has("0xab01"))
}

func TestEntryExpiresOnRead(t *testing.T) {
	c := New()
	fakeNow := time.Now()
	c.now = func() time.Time { return fakeNow }

	c.Set("0xab01", 10*time.Millisecond)
	assert.True(t, c.Has("0xab01"))

	fakeNow = fakeNow.Add(11 * time.Millisecond)
	assert.False(t, c.Has("0xab01"))
}

func TestCapacityEvictsOldest(t *testing.T) {
	c := NewWithCapacity(2)
	c.Set("0x01", time.Minute)
	c.Set("0x02", time.Minute)
	c.Set("0x03", time.Minute)

	assert.False(t, c.Has("0x01"), "oldest entry should have been evicted")
	assert.True(t, c.Has("0x02"))
	assert.True(t, c.Has("0x03"))
}

func TestLenCountsOnlyLiveEntries(t *testing.T) {
	c := New()
	fakeNow := time.Now()
	c.now = func() time.Time { return fakeNow }

	c.Set("0x01", 5*time.Millisecond)
	c.Set("0x02", time.Minute)
	assert.Equal(t, 2, c.Len())

	fakeNow = fakeNow.Add(6 * time.Millisecond)
	assert.Equal(t, 1, c.Len())
}
