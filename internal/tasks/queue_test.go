package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/sptx/internal/actions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	t.Run("Delivers In Send Order", func(t *testing.T) {
		q := NewQueue()
		sent := []actions.Action{actions.NewPausePlayback(), actions.NewNextTrack(), actions.NewSetVolume(30)}
		for _, a := range sent {
			require.True(t, q.Send(a))
		}
		assert.Equal(t, 3, q.Len())

		for _, want := range sent {
			got, err := q.Receive(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want.ID(), got.ID())
		}
		assert.Zero(t, q.Len())
	})

	t.Run("Send Never Blocks Without A Receiver", func(t *testing.T) {
		q := NewQueue()
		done := make(chan struct{})
		go func() {
			for range 10_000 {
				q.Send(actions.NewFetchPlayback())
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("send blocked")
		}
		assert.Equal(t, 10_000, q.Len())
	})

	t.Run("Receive Waits For Send", func(t *testing.T) {
		q := NewQueue()
		got := make(chan actions.Action, 1)
		go func() {
			a, err := q.Receive(context.Background())
			if err == nil {
				got <- a
			}
		}()

		a := actions.NewNextTrack()
		q.Send(a)

		select {
		case r := <-got:
			assert.Equal(t, a.ID(), r.ID())
		case <-time.After(5 * time.Second):
			t.Fatal("receiver never woke")
		}
	})

	t.Run("Close Drains Then Reports Closed", func(t *testing.T) {
		q := NewQueue()
		q.Send(actions.NewPausePlayback())
		q.Close()
		q.Close()

		assert.False(t, q.Send(actions.NewNextTrack()))

		_, err := q.Receive(context.Background())
		require.NoError(t, err)
		_, err = q.Receive(context.Background())
		assert.ErrorIs(t, err, ErrQueueClosed)
	})

	t.Run("Close Wakes A Waiting Receiver", func(t *testing.T) {
		q := NewQueue()
		errs := make(chan error, 1)
		go func() {
			_, err := q.Receive(context.Background())
			errs <- err
		}()

		time.Sleep(10 * time.Millisecond)
		q.Close()

		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrQueueClosed)
		case <-time.After(5 * time.Second):
			t.Fatal("receiver never woke")
		}
	})

	t.Run("Receive Honors Context", func(t *testing.T) {
		q := NewQueue()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := q.Receive(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Concurrent Senders Lose Nothing", func(t *testing.T) {
		q := NewQueue()
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 250 {
					q.Send(actions.NewFetchDevices())
				}
			}()
		}
		wg.Wait()
		q.Close()

		n := 0
		for {
			if _, err := q.Receive(context.Background()); err != nil {
				break
			}
			n++
		}
		assert.Equal(t, 2000, n)
	})
}
