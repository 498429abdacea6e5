package presence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const interval = 5 * time.Second

var t0 = time.Date(2025, time.May, 5, 22, 0, 1, 0, time.UTC)

func TestRegistry_UnknownUserIsOffline(t *testing.T) {
	r := NewRegistry(nil)

	assert.False(t, r.IsOnline("nobody"))
	assert.Empty(t, r.SnapshotOnline())
	_, ok := r.LastReminder("nobody")
	assert.False(t, ok)
	assert.False(t, r.Claim("nobody", t0, interval))
}

func TestRegistry_ApplyCreatesRecord(t *testing.T) {
	r := NewRegistry(nil)

	r.Apply("u1", true, t0)
	r.Apply("u2", false, t0)

	assert.True(t, r.IsOnline("u1"))
	assert.False(t, r.IsOnline("u2"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"u1"}, r.SnapshotOnline())
}

func TestRegistry_OfflineClearsLastReminder(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, r *Registry)
	}{
		{name: "unknown user", setup: func(*testing.T, *Registry) {}},
		{name: "already offline", setup: func(_ *testing.T, r *Registry) { r.Apply("u", false, t0) }},
		{name: "online without reminder", setup: func(_ *testing.T, r *Registry) { r.Apply("u", true, t0) }},
		{name: "online with reminder", setup: func(t *testing.T, r *Registry) {
			r.Apply("u", true, t0)
			require.True(t, r.Claim("u", t0, interval))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(nil)
			tt.setup(t, r)

			r.Apply("u", false, t0.Add(time.Second))

			assert.False(t, r.IsOnline("u"))
			_, ok := r.LastReminder("u")
			assert.False(t, ok)
		})
	}
}

func TestRegistry_ApplyIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	r.Apply("u", true, t0)
	require.True(t, r.Claim("u", t0, interval))

	r.Apply("u", true, t0.Add(time.Second))
	r.Apply("u", true, t0.Add(time.Second))

	assert.True(t, r.IsOnline("u"))
	last, ok := r.LastReminder("u")
	require.True(t, ok)
	assert.Equal(t, t0, last)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ClaimCooldown(t *testing.T) {
	r := NewRegistry(nil)
	r.Apply("u", true, t0)

	assert.True(t, r.Claim("u", t0, interval))
	assert.False(t, r.Claim("u", t0.Add(3*time.Second), interval))
	assert.False(t, r.Claim("u", t0.Add(interval-time.Nanosecond), interval))
	assert.True(t, r.Claim("u", t0.Add(interval), interval))

	last, ok := r.LastReminder("u")
	require.True(t, ok)
	assert.Equal(t, t0.Add(interval), last)
}

func TestRegistry_ClaimNeverMovesBackwards(t *testing.T) {
	r := NewRegistry(nil)
	r.Apply("u", true, t0)
	require.True(t, r.Claim("u", t0, interval))

	assert.False(t, r.Claim("u", t0.Add(-time.Hour), interval))
	last, _ := r.LastReminder("u")
	assert.Equal(t, t0, last)
}

func TestRegistry_ClaimRequiresOnline(t *testing.T) {
	r := NewRegistry(nil)
	r.Apply("u", true, t0)
	r.Apply("u", false, t0)

	assert.False(t, r.Claim("u", t0, interval))
	_, ok := r.LastReminder("u")
	assert.False(t, ok)
}

func TestRegistry_Consume(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	ch := make(chan Event, 4)
	ch <- Event{UserID: "a", Online: true, At: t0}
	ch <- Event{UserID: "b", Online: true, At: t0}
	ch <- Event{UserID: "a", Online: false, At: t0.Add(time.Second)}
	close(ch)

	r.Consume(context.Background(), ch)

	assert.False(t, r.IsOnline("a"))
	assert.True(t, r.IsOnline("b"))
}

func TestRegistry_ConsumeStopsOnCancel(t *testing.T) {
	r := NewRegistry(nil)
	ch := make(chan Event)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Consume(ctx, ch)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestRegistry_ConcurrentApplyAndSnapshot(t *testing.T) {
	r := NewRegistry(nil)
	const users = 50

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		id := fmt.Sprintf("u%02d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Apply(id, j%2 == 0, t0)
				r.Claim(id, t0.Add(time.Duration(j)*interval), interval)
			}
			r.Apply(id, true, t0)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			for _, id := range r.SnapshotOnline() {
				_ = r.IsOnline(id)
			}
		}
	}()
	wg.Wait()

	assert.Len(t, r.SnapshotOnline(), users)
}

func TestRegistry_SinceTracksTransitions(t *testing.T) {
	r := NewRegistry(nil)
	_, ok := r.Since("u")
	assert.False(t, ok)

	r.Apply("u", true, t0)
	r.Apply("u", true, t0.Add(time.Minute))
	since, ok := r.Since("u")
	require.True(t, ok)
	assert.Equal(t, t0, since, "repeated state keeps the first transition time")

	r.Apply("u", false, t0.Add(2*time.Minute))
	since, _ = r.Since("u")
	assert.Equal(t, t0.Add(2*time.Minute), since)
}
