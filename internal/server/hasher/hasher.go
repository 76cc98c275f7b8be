// Package hasher turns plaintext secrets into salted Argon2id digests and
// checks plaintexts against stored digests without recovering them.
//
// Derivations are CPU and memory heavy, so a Hasher admits at most Workers
// of them at a time; callers beyond that wait on their own context.
package hasher

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// MinSaltLen is the smallest salt the hasher accepts.
const MinSaltLen = 16

// Params is the Argon2id work factor.
type Params struct {
	Time      uint32 // passes over memory
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   int
}

// DefaultParams follows the RFC 9106 second recommended option, scaled down
// to 64 MiB.
func DefaultParams() Params {
	return Params{
		Time:      3,
		MemoryKiB: 64 * 1024,
		Threads:   2,
		KeyLen:    32,
		SaltLen:   16,
	}
}

// Validate rejects parameter sets that would produce weak or broken digests.
func (p Params) Validate() error {
	switch {
	case p.Time == 0:
		return errors.New("hasher: time must be positive")
	case p.Threads == 0:
		return errors.New("hasher: threads must be positive")
	case p.MemoryKiB < 8*uint32(p.Threads):
		return fmt.Errorf("hasher: memory must be at least %d KiB for %d threads", 8*uint32(p.Threads), p.Threads)
	case p.KeyLen < 16:
		return errors.New("hasher: key length must be at least 16 bytes")
	case p.SaltLen < MinSaltLen:
		return fmt.Errorf("hasher: salt length must be at least %d bytes", MinSaltLen)
	}
	return nil
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithObserver registers a callback receiving the duration of every
// derivation, labelled "hash" or "verify".
func WithObserver(fn func(op string, d time.Duration)) Option {
	return func(h *Hasher) { h.observe = fn }
}

// Hasher is safe for concurrent use.
type Hasher struct {
	params  Params
	sem     *semaphore.Weighted
	observe func(op string, d time.Duration)
}

// New builds a Hasher. workers <= 0 means runtime.NumCPU().
func New(p Params, workers int, opts ...Option) (*Hasher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	h := &Hasher{
		params: p,
		sem:    semaphore.NewWeighted(int64(workers)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Params returns the work factor the hasher was built with.
func (h *Hasher) Params() Params { return h.params }

// Hash derives a digest of plaintext under a fresh random salt.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (digest, salt []byte, err error) {
	if plaintext == "" {
		return nil, nil, fmt.Errorf("%w: empty secret", common.ErrInvalidInput)
	}

	salt, err = common.GenerateRandByteArray(h.params.SaltLen)
	if err != nil {
		return nil, nil, fmt.Errorf("salt generation error: %w", err)
	}

	digest, err = h.derive(ctx, "hash", plaintext, salt)
	if err != nil {
		return nil, nil, err
	}
	return digest, salt, nil
}

// Verify recomputes the digest of plaintext under salt and compares it to
// digest in constant time. A mismatch, an empty plaintext or a context that
// expires while waiting for a worker all yield false.
func (h *Hasher) Verify(ctx context.Context, plaintext string, digest, salt []byte) bool {
	candidate, err := h.derive(ctx, "verify", plaintext, salt)
	if err != nil {
		return false
	}
	match := subtle.ConstantTimeCompare(candidate, digest) == 1
	return match && plaintext != ""
}

func (h *Hasher) derive(ctx context.Context, op, plaintext string, salt []byte) ([]byte, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("hasher busy: %w", err)
	}
	defer h.sem.Release(1)

	pw := []byte(plaintext)
	defer common.WipeByteArray(pw)

	start := time.Now()
	key := argon2.IDKey(pw, salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)
	if h.observe != nil {
		h.observe(op, time.Since(start))
	}
	return key, nil
}
