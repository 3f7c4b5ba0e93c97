package users

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := &User{UserName: "alice", Email: "alice@x.com", PasswordHash: "h"}
	require.NoError(t, s.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got.PasswordHash = "tampered"
	again, err := s.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "h", again.PasswordHash)
}

func TestMemoryStore_Uniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, &User{UserName: "alice", Email: "alice@x.com", PasswordHash: "h"}))

	assert.ErrorIs(t, s.Create(ctx, &User{UserName: "other", Email: "alice@x.com", PasswordHash: "h"}), ErrDuplicate)
	assert.ErrorIs(t, s.Create(ctx, &User{UserName: "alice", Email: "other@x.com", PasswordHash: "h"}), ErrDuplicate)
	assert.Equal(t, 1, s.Len())

	exists, err := s.ExistsByEmailOrUserName(ctx, "nobody@x.com", "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ExistsByEmailOrUserName(ctx, "nobody@x.com", "nobody")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	_, err := NewMemoryStore().GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Create(ctx, &User{
				UserName:     "user" + string(rune('a'+i)),
				Email:        "same@x.com",
				PasswordHash: "h",
			})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrDuplicate)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, s.Len())
}
