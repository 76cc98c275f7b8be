package hasher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// cheap keeps the suite fast; the algorithm is the same at any cost.
var cheap = Params{Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func newTestHasher(t *testing.T, workers int, opts ...Option) *Hasher {
	t.Helper()
	h, err := New(cheap, workers, opts...)
	require.NoError(t, err)
	return h
}

func TestHash_RoundTrip(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	digest, salt, err := h.Hash(ctx, "Secur3Pass!")
	require.NoError(t, err)
	assert.Len(t, digest, 32)
	assert.Len(t, salt, 16)

	assert.True(t, h.Verify(ctx, "Secur3Pass!", digest, salt))
}

func TestVerify_RejectsOtherPlaintexts(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	digest, salt, err := h.Hash(ctx, "Secur3Pass!")
	require.NoError(t, err)

	for _, other := range []string{"secur3Pass!", "Secur3Pass", "Secur3Pass!!", " Secur3Pass!", ""} {
		assert.False(t, h.Verify(ctx, other, digest, salt), "plaintext %q must not verify", other)
	}
}

func TestVerify_WrongSaltOrDigest(t *testing.T) {
	h := newTestHasher(t, 1)
	ctx := context.Background()

	digest, salt, err := h.Hash(ctx, "Secur3Pass!")
	require.NoError(t, err)

	otherSalt := append([]byte(nil), salt...)
	otherSalt[0] ^= 0x01
	assert.False(t, h.Verify(ctx, "Secur3Pass!", digest, otherSalt))

	assert.False(t, h.Verify(ctx, "Secur3Pass!", digest[:16], salt), "truncated digest")
	assert.False(t, h.Verify(ctx, "Secur3Pass!", nil, salt), "missing digest")
}

func TestHash_FreshSaltEveryCall(t *testing.T) {
	h := newTestHasher(t, 1)
	ctx := context.Background()

	d1, s1, err := h.Hash(ctx, "same-secret")
	require.NoError(t, err)
	d2, s2, err := h.Hash(ctx, "same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, d1, d2)
}

func TestHash_EmptyPlaintext(t *testing.T) {
	h := newTestHasher(t, 1)

	_, _, err := h.Hash(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
	assert.NoError(t, cheap.Validate())

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero time", func(p *Params) { p.Time = 0 }},
		{"zero threads", func(p *Params) { p.Threads = 0 }},
		{"memory below 8 KiB per thread", func(p *Params) { p.Threads = 4; p.MemoryKiB = 16 }},
		{"short key", func(p *Params) { p.KeyLen = 8 }},
		{"short salt", func(p *Params) { p.SaltLen = 8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := cheap
			tt.mutate(&p)
			assert.Error(t, p.Validate())
			_, err := New(p, 1)
			assert.Error(t, err)
		})
	}
}

func TestHash_ContextExpiresWhilePoolIsFull(t *testing.T) {
	h := newTestHasher(t, 1)

	// Occupy the only worker slot.
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := h.Hash(ctx, "Secur3Pass!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	assert.False(t, h.Verify(ctx, "Secur3Pass!", []byte("d"), []byte("s")))
}

func TestHasher_ConcurrentUse(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, s, err := h.Hash(ctx, "Concurrent1!")
			if err != nil {
				errs <- err
				return
			}
			if !h.Verify(ctx, "Concurrent1!", d, s) {
				errs <- errors.New("verify failed")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}

func TestWithObserver_ReceivesBothOperations(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	h := newTestHasher(t, 1, WithObserver(func(op string, d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		seen[op]++
	}))
	ctx := context.Background()

	d, s, err := h.Hash(ctx, "Observed1!")
	require.NoError(t, err)
	h.Verify(ctx, "Observed1!", d, s)

	assert.Equal(t, map[string]int{"hash": 1, "verify": 1}, seen)
}
