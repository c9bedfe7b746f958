package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRatePacer_FirstWaitPaced verifies the very first wait already blocks
// for the configured interval instead of passing on a pre-filled bucket.
func TestRatePacer_FirstWaitPaced(t *testing.T) {
	interval := 50 * time.Millisecond
	p := NewRatePacer(interval)

	start := time.Now()
	err := p.Wait(context.Background())

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

// TestRatePacer_ContextCancellation verifies a cancelled context unblocks a
// pending wait.
func TestRatePacer_ContextCancellation(t *testing.T) {
	p := NewRatePacer(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Wait(ctx)
	assert.Error(t, err)
}

// TestNoopPacer verifies the noop pacer never blocks but still honors a
// cancelled context.
func TestNoopPacer(t *testing.T) {
	p := NewNoopPacer()

	assert.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}
