package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := New(true)

	etag := c.Set("k", []byte(`{"a":1}`), time.Minute)
	require.NotEmpty(t, etag)

	data, gotETag, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), data)
	assert.Equal(t, etag, gotETag)
}

func TestGetMissAndExpiry(t *testing.T) {
	c := New(true)

	_, _, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("short", []byte("x"), -time.Second)
	_, _, ok = c.Get("short")
	assert.False(t, ok, "expired entries are misses")
}

func TestDisabledCacheStillComputesETags(t *testing.T) {
	c := New(false)

	etag := c.Set("k", []byte("payload"), time.Minute)
	assert.NotEmpty(t, etag, "disabled cache still returns an ETag for conditional requests")

	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestETagMatching(t *testing.T) {
	etag := ComputeETag([]byte("payload"))

	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.False(t, CheckETagMatch("", etag))
	assert.False(t, CheckETagMatch(ComputeETag([]byte("other")), etag))
}

func TestStats(t *testing.T) {
	c := New(true)
	c.Set("live", []byte("x"), time.Minute)
	c.Set("dead", []byte("y"), -time.Second)

	stats := c.Stats()
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, 1, stats["active_keys"])
	assert.Equal(t, 1, stats["expired_keys"])
}
