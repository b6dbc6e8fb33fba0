// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_RunReturnsResult(t *testing.T) {
	s := New(4)
	defer s.Shutdown()

	ch := s.Run(context.Background(), func(context.Context) error {
		return nil
	})

	select {
	case err := <-ch:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for task result")
	}
}

func TestScheduler_CapsInFlight(t *testing.T) {
	s := New(2)
	defer s.Shutdown()

	var running atomic.Int32
	var maxSeen atomic.Int32
	release := make(chan struct{})

	// Submit blocks once both slots are taken, so submit from a separate
	// goroutine and let it finish after the tasks are released.
	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i := 0; i < 5; i++ {
			s.Submit(context.Background(), func(context.Context) {
				n := running.Add(1)
				for {
					cur := maxSeen.Load()
					if n <= cur || maxSeen.CompareAndSwap(cur, n) {
						break
					}
				}
				<-release
				running.Add(-1)
			})
		}
	}()

	time.Sleep(50 * time.Millisecond)
	require.LessOrEqual(t, int(maxSeen.Load()), 2)
	close(release)
	<-submitted
}

func TestScheduler_ShutdownWaits(t *testing.T) {
	s := New(4)
	var done atomic.Bool

	s.Submit(context.Background(), func(context.Context) {
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
	})

	s.Shutdown()
	require.True(t, done.Load())
}
