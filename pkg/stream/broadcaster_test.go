package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T any](t *testing.T, s *Subscription[T], n int) []T {
	t.Helper()
	var got []T
	for len(got) < n {
		select {
		case v, ok := <-s.C():
			if !ok {
				return got
			}
			got = append(got, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d values", len(got), n)
		}
	}
	return got
}

func TestBroadcaster(t *testing.T) {
	t.Run("every subscriber receives every value in order", func(t *testing.T) {
		b := NewBroadcaster[int]()
		a := b.Subscribe()
		c := b.Subscribe()
		defer a.Close()
		defer c.Close()

		for i := 0; i < 100; i++ {
			b.Publish(i)
		}

		want := make([]int, 100)
		for i := range want {
			want[i] = i
		}
		assert.Equal(t, want, collect(t, a, 100))
		assert.Equal(t, want, collect(t, c, 100))
	})

	t.Run("late subscriber gets no history", func(t *testing.T) {
		b := NewBroadcaster[string]()
		early := b.Subscribe()
		defer early.Close()

		b.Publish("first")
		require.Equal(t, []string{"first"}, collect(t, early, 1))

		late := b.Subscribe()
		defer late.Close()
		b.Publish("second")

		assert.Equal(t, []string{"second"}, collect(t, late, 1))
		assert.Equal(t, []string{"second"}, collect(t, early, 1))
	})

	t.Run("close drains queued values then closes channel", func(t *testing.T) {
		b := NewBroadcaster[int]()
		s := b.Subscribe()

		b.Publish(1)
		b.Publish(2)
		b.Close()
		b.Publish(3)

		got := collect(t, s, 10)
		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("subscribe after close yields closed channel", func(t *testing.T) {
		b := NewBroadcaster[int]()
		b.Close()

		s := b.Subscribe()
		select {
		case _, ok := <-s.C():
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel not closed")
		}
	})

	t.Run("closed subscription is detached", func(t *testing.T) {
		b := NewBroadcaster[int]()
		s := b.Subscribe()
		other := b.Subscribe()
		defer other.Close()
		require.Equal(t, 2, b.Subscribers())

		s.Close()
		s.Close()
		assert.Equal(t, 1, b.Subscribers())

		b.Publish(7)
		assert.Equal(t, []int{7}, collect(t, other, 1))
	})

	t.Run("publish does not block on an idle subscriber", func(t *testing.T) {
		b := NewBroadcaster[int]()
		idle := b.Subscribe()
		defer idle.Close()

		finished := make(chan struct{})
		go func() {
			for i := 0; i < 1000; i++ {
				b.Publish(i)
			}
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(2 * time.Second):
			t.Fatal("publish blocked")
		}
		assert.Len(t, collect(t, idle, 1000), 1000)
	})
}
