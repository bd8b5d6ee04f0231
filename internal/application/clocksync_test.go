package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimeClient returns a scripted server time and counts queries.
type fakeTimeClient struct {
	mu         sync.Mutex
	serverTime int64
	err        error
	calls      int
}

func (f *fakeTimeClient) QueryServerTime(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.serverTime, nil
}

func (f *fakeTimeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestClockSync_AlignsOnceAndCaches(t *testing.T) {
	client := &fakeTimeClient{serverTime: time.Now().Unix() + 120}
	clock := NewClockSync(client)
	ctx := context.Background()

	got := clock.Now(ctx)
	assert.InDelta(t, time.Now().Unix()+120, got, 2)
	assert.True(t, clock.Aligned())

	for range 5 {
		clock.Now(ctx)
	}
	assert.Equal(t, 1, client.callCount(), "aligned clock must never re-query")
}

func TestClockSync_FailureDegradesToLocalTime(t *testing.T) {
	client := &fakeTimeClient{err: errors.New("dial tcp: timeout")}
	clock := NewClockSync(client)
	ctx := context.Background()

	got := clock.Now(ctx)
	assert.InDelta(t, time.Now().Unix(), got, 2, "unaligned clock returns local time")
	assert.False(t, clock.Aligned())

	// A later successful query recovers alignment.
	client.mu.Lock()
	client.err = nil
	client.serverTime = time.Now().Unix() - 60
	client.mu.Unlock()

	got = clock.Now(ctx)
	assert.InDelta(t, time.Now().Unix()-60, got, 2)
	assert.True(t, clock.Aligned())
}

func TestClockSync_AlignReturnsQueryError(t *testing.T) {
	wantErr := errors.New("connection refused")
	clock := NewClockSync(&fakeTimeClient{err: wantErr})

	err := clock.Align(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.False(t, clock.Aligned())
}

func TestClockSync_AlignAsyncMatchesBlockingSemantics(t *testing.T) {
	client := &fakeTimeClient{serverTime: time.Now().Unix() + 45}
	clock := NewClockSync(client)

	clock.AlignAsync(context.Background())

	require.Eventually(t, clock.Aligned, time.Second, 5*time.Millisecond)
	assert.InDelta(t, time.Now().Unix()+45, clock.Now(context.Background()), 2)
	assert.Equal(t, 1, client.callCount())
}

func TestClockSync_ConcurrentReaders(t *testing.T) {
	client := &fakeTimeClient{serverTime: time.Now().Unix() + 10}
	clock := NewClockSync(client)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				got := clock.Now(ctx)
				assert.InDelta(t, time.Now().Unix()+10, got, 3)
			}
		}()
	}
	wg.Wait()
}
