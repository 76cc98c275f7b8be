package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ann@x.com", "ann@x.com"},
		{"Ann@X.com", "ann@x.com"},
		{"  ann@x.com \t", "ann@x.com"},
		{"ÄNN@Bücher.DE", "änn@bücher.de"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in), "input %q", tt.in)
	}
}

func TestMemory_InsertAndFind(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	u := &models.User{ID: "u-1", Name: "Ann", Email: "Ann@X.com", Digest: []byte{1}, Salt: []byte{2}}
	require.NoError(t, r.InsertIfAbsent(ctx, u))
	assert.Equal(t, "ann@x.com", u.Email)

	got, err := r.FindByEmail(ctx, " ANN@x.COM ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, []byte{1}, got.Digest)

	// Mutating the returned record must not reach the store.
	got.Digest[0] = 9
	again, err := r.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, again.Digest)
}

func TestMemory_NormalisedEmailsCollide(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.InsertIfAbsent(ctx, &models.User{ID: "a", Email: "Ann@X.com"}))
	err := r.InsertIfAbsent(ctx, &models.User{ID: "b", Email: " ann@x.com "})
	assert.True(t, errors.Is(err, common.ErrAlreadyExists))
	assert.Equal(t, 1, r.Len())

	got, err := r.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID, "the losing insert must leave nothing behind")
}

func TestMemory_NotFound(t *testing.T) {
	_, err := NewMemoryRepository().FindByEmail(context.Background(), "ghost@x.com")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewMemoryRepository()
	assert.ErrorIs(t, r.InsertIfAbsent(ctx, &models.User{Email: "a@x.com"}), context.Canceled)
	_, err := r.FindByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_ConcurrentSameEmailSingleWinner(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	const n = 64
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := r.InsertIfAbsent(ctx, &models.User{ID: fmt.Sprint(i), Email: "Race@X.com"})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, common.ErrAlreadyExists):
				conflicts.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(n-1), conflicts.Load())
	assert.Equal(t, 1, r.Len())
}

func TestMemory_ConcurrentDistinctEmails(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.InsertIfAbsent(ctx, &models.User{ID: fmt.Sprint(i), Email: fmt.Sprintf("u%d@x.com", i)}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 32, r.Len())
}
