package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(_ context.Context, _ time.Time) (int64, error) {
	p.calls.Add(1)
	return 3, p.err
}

func TestPurgeJobRuns(t *testing.T) {
	p := &countingPurger{}
	sc, err := New(p, 50*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sc.Run(ctx) }()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestPurgeErrorIsLoggedNotFatal(t *testing.T) {
	p := &countingPurger{err: errors.New("db down")}
	sc, err := New(p, time.Hour, zerolog.Nop())
	require.NoError(t, err)
	sc.purgeTokens(p)
	assert.Equal(t, int32(1), p.calls.Load())
}
