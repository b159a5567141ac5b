package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name  string
	err   error
	calls atomic.Int32
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Fetch(ctx context.Context, req *FetchRequest) (*RenderedPage, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return &RenderedPage{FinalURL: req.URL, StatusCode: 200, EngineName: e.name}, nil
}

func TestDispatcher_EscalatesAndRemembersWinner(t *testing.T) {
	failing := &stubEngine{name: "http", err: errors.New("blocked")}
	browser := &stubEngine{name: "rod"}
	memory := NewDomainMemory(time.Hour)
	t.Cleanup(memory.Stop)

	d := NewDispatcher([]Engine{failing, browser}, []time.Duration{0, 10 * time.Millisecond}, memory)

	page, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://www.booking.com/Share-x"})
	require.NoError(t, err)
	assert.Equal(t, "rod", page.EngineName)
	assert.Equal(t, "rod", memory.Get("www.booking.com"))

	// Second fetch on the same domain goes straight to the remembered engine.
	_, err = d.Fetch(context.Background(), &FetchRequest{URL: "https://www.booking.com/Share-y"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(2), browser.calls.Load())
}

func TestDispatcher_AllEnginesFail(t *testing.T) {
	memory := NewDomainMemory(time.Hour)
	t.Cleanup(memory.Stop)

	d := NewDispatcher([]Engine{
		&stubEngine{name: "http", err: errors.New("first")},
	}, nil, memory)

	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com"})
	require.Error(t, err)
	assert.Equal(t, "", memory.Get("example.com"))
}

func TestDomainMemory_Expiry(t *testing.T) {
	memory := NewDomainMemory(time.Millisecond)
	t.Cleanup(memory.Stop)

	memory.Set("example.com", "rod")
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, "", memory.Get("example.com"))
}

func TestDomainMemory_Sweep(t *testing.T) {
	memory := NewDomainMemory(time.Minute)
	t.Cleanup(memory.Stop)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	memory.now = func() time.Time { return now }

	memory.Set("stale.example", "http")
	now = now.Add(2 * time.Minute)
	memory.Set("fresh.example", "rod")

	memory.sweep()
	assert.Equal(t, 1, memory.Len())
	assert.Equal(t, "rod", memory.Get("fresh.example"))

	memory.Stop()
	memory.Stop()
}

func TestDomainMemory_DefaultTTL(t *testing.T) {
	memory := NewDomainMemory(0)
	t.Cleanup(memory.Stop)
	assert.Equal(t, DefaultDomainMemoryTTL, memory.ttl)
}

type blockingEngine struct{ name string }

func (e blockingEngine) Name() string { return e.name }

func (e blockingEngine) Fetch(ctx context.Context, req *FetchRequest) (*RenderedPage, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDispatcher_HeavierTierJoinsAfterDelay(t *testing.T) {
	memory := NewDomainMemory(time.Hour)
	t.Cleanup(memory.Stop)

	rod := &stubEngine{name: "rod"}
	d := NewDispatcher([]Engine{blockingEngine{name: "http"}, rod},
		[]time.Duration{0, 20 * time.Millisecond}, memory)

	start := time.Now()
	page, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://hotel.example/a"})
	require.NoError(t, err)

	assert.Equal(t, "rod", page.EngineName)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDispatcher_NoEngines(t *testing.T) {
	_, err := NewDispatcher(nil, nil, nil).Dispatch(context.Background(), &FetchRequest{URL: "https://x"})
	assert.Error(t, err)
}
