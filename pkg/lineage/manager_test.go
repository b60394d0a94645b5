package lineage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/ports"
)

func TestManager_SerializesPerLineage(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(ctx, "lin-1", func(ctx context.Context) error {
				// Read-modify-write with a pause to provoke lost updates without locking.
				v := counter
				time.Sleep(time.Millisecond)
				counter = v + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, counter)
}

func TestManager_LockLifecycle(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_ = m.WithLock(ctx, fmt.Sprintf("lin-%d", i), func(context.Context) error { return nil })
	}
	assert.Equal(t, 0, m.activeLocks(), "lock entries must be released")
}

func TestManager_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := NewManager().WithLock(context.Background(), "lin", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

// FakeLocker records lock usage.
type FakeLocker struct {
	mu       sync.Mutex
	keys     []string
	unlocked int
	fail     error
}

func (f *FakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	f.keys = append(f.keys, key)
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &FakeLocker{}
	m := NewManager(WithLocker(locker), WithTTL(time.Second))

	ran := false
	require.NoError(t, m.WithLock(context.Background(), "lin-9", func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.Equal(t, []string{"lineage:lin-9"}, locker.keys)
	assert.Equal(t, 1, locker.unlocked)

	locker.fail = errors.New("redis down")
	err := m.WithLock(context.Background(), "lin-9", func(context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}
