package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stacksapp/stacks-server/internal/ratelimit"
)

func TestAllow_WithinBurst(t *testing.T) {
	krl := ratelimit.New(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, krl.Allow("client-a"), "request %d should pass within burst", i)
	}
	assert.False(t, krl.Allow("client-a"), "burst exhausted")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	krl := ratelimit.New(1, 1)

	assert.True(t, krl.Allow("client-a"))
	assert.False(t, krl.Allow("client-a"))

	// A different key gets its own bucket
	assert.True(t, krl.Allow("client-b"))
}

func TestAllow_Refills(t *testing.T) {
	krl := ratelimit.New(100, 1)

	assert.True(t, krl.Allow("client-a"))
	assert.False(t, krl.Allow("client-a"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, krl.Allow("client-a"), "token refilled after waiting")
}
