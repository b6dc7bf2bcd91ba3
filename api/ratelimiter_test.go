package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	rl := newRatelimiter(2)
	rl.expirationTTL = 30 * time.Millisecond

	// The same key yields the same bucket.

	c := rl.getClient("key1")
	assert.Equal(t, rl.getClient("key1"), c)

	// Reuse refreshes lastSeen.

	now := time.Now().UnixNano()

	time.Sleep(10 * time.Millisecond)

	c = rl.getClient("key1")
	assert.True(t, c.lastSeen > now)

	// Idle buckets expire.

	done := make(chan struct{})
	go func() {
		stop := rl.cleanup(30 * time.Millisecond)
		time.Sleep(100 * time.Millisecond)
		stop()

		close(done)
	}()
	<-done
	assert.Nil(t, rl.clients["key1"])
}
