package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobgate/jobgate/internal/clock"
	"github.com/jobgate/jobgate/service/approval"
	"github.com/jobgate/jobgate/service/identity"
)

func stubClock(t *testing.T, at time.Time) func(time.Time) {
	t.Helper()
	current := at
	clock.NowFunc = func() time.Time { return current }
	t.Cleanup(func() { clock.NowFunc = time.Now })
	return func(next time.Time) { current = next }
}

func newPending(timeout time.Duration) *approval.Request {
	return approval.NewRequest("prod-deploy", map[string]interface{}{"env": "x"}, identity.Anonymous, timeout)
}

func TestStore_PutAndGet(t *testing.T) {
	stubClock(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	store := New()

	request := newPending(time.Minute)
	require.NoError(t, store.Put(ctx, request))

	loaded, err := store.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, loaded.ID)
	assert.Equal(t, approval.StatusPending, loaded.Status)

	// Snapshots never alias the stored entry.
	loaded.Status = approval.StatusApproved
	again, err := store.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, again.Status)

	_, err = store.Get(ctx, "no-such-id")
	assert.ErrorIs(t, err, approval.ErrNotFound)
}

func TestStore_PutDuplicateID(t *testing.T) {
	stubClock(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	store := New()

	request := newPending(time.Minute)
	require.NoError(t, store.Put(ctx, request))
	assert.ErrorIs(t, store.Put(ctx, request), approval.ErrDuplicateID)
	assert.Equal(t, 1, store.Size())
}

func TestStore_LazyExpiryOnGet(t *testing.T) {
	now := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	advance := stubClock(t, now)
	ctx := context.Background()

	var expired []*approval.Request
	store := New(WithExpiryListener(func(r *approval.Request) { expired = append(expired, r) }))

	request := newPending(time.Minute)
	require.NoError(t, store.Put(ctx, request))

	advance(now.Add(70 * time.Second))
	loaded, err := store.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusExpired, loaded.Status)
	require.Len(t, expired, 1)
	assert.Equal(t, request.ID, expired[0].ID)

	// Only the first read resolves it.
	_, err = store.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Len(t, expired, 1)
}

func TestStore_ListPendingSweepsExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	advance := stubClock(t, now)
	ctx := context.Background()
	store := New()

	short := newPending(30 * time.Second)
	long := newPending(5 * time.Minute)
	require.NoError(t, store.Put(ctx, short))
	require.NoError(t, store.Put(ctx, long))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	advance(now.Add(31 * time.Second))
	pending, err = store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, long.ID, pending[0].ID)

	loaded, err := store.Get(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusExpired, loaded.Status)
}

func TestStore_TransitionRace(t *testing.T) {
	stubClock(t, time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC))
	ctx := context.Background()
	store := New()

	request := newPending(time.Minute)
	require.NoError(t, store.Put(ctx, request))

	const racers = 32
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, results[i] = store.Transition(ctx, request.ID, func(r *approval.Request) error {
					return r.Approve("admin")
				})
			} else {
				_, results[i] = store.Transition(ctx, request.ID, func(r *approval.Request) error {
					return r.Reject("admin", "no")
				})
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, approval.ErrInvalidState)
		}
	}
	assert.Equal(t, 1, winners)

	final, err := store.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.True(t, final.Status == approval.StatusApproved || final.Status == approval.StatusRejected)
	assert.Equal(t, "admin", final.ResolvedBy)
}

func TestStore_TransitionAfterDeadline(t *testing.T) {
	now := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	advance := stubClock(t, now)
	ctx := context.Background()
	store := New()

	request := newPending(time.Minute)
	require.NoError(t, store.Put(ctx, request))

	advance(now.Add(2 * time.Minute))
	snapshot, err := store.Transition(ctx, request.ID, func(r *approval.Request) error {
		return r.Approve("admin")
	})
	assert.ErrorIs(t, err, approval.ErrInvalidState)
	// The loser still observes the winning terminal state.
	require.NotNil(t, snapshot)
	assert.Equal(t, approval.StatusExpired, snapshot.Status)
}

func TestStore_SweepRetention(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	advance := stubClock(t, now)
	ctx := context.Background()
	store := New()

	resolved := newPending(time.Minute)
	require.NoError(t, store.Put(ctx, resolved))
	_, err := store.Transition(ctx, resolved.ID, func(r *approval.Request) error {
		return r.Reject("admin", "no")
	})
	require.NoError(t, err)

	pending := newPending(100 * time.Hour)
	require.NoError(t, store.Put(ctx, pending))

	// Inside the retention window nothing is removed.
	removed, err := store.SweepRetention(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	advance(now.Add(25 * time.Hour))
	removed, err = store.SweepRetention(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Size())

	// The pending entry survived.
	_, err = store.Get(ctx, pending.ID)
	require.NoError(t, err)
	_, err = store.Get(ctx, resolved.ID)
	assert.ErrorIs(t, err, approval.ErrNotFound)
}
