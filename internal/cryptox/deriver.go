package cryptox

import (
	"context"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Deriver funnels all CPU-expensive key derivation and credential hashing
// through a weighted semaphore, so a burst of slow hashes cannot stall
// unrelated requests. Acquisition is context-aware: a cancelled request
// gives up its place in line.
type Deriver struct {
	sem        *semaphore.Weighted
	iterations int
	bcryptCost int
}

// NewDeriver builds a Deriver. Zero or negative parameters fall back to
// DefaultKDFIterations, bcrypt.DefaultCost and GOMAXPROCS respectively.
func NewDeriver(iterations, bcryptCost, maxConcurrent int) *Deriver {
	if iterations <= 0 {
		iterations = DefaultKDFIterations
	}
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &Deriver{
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		iterations: iterations,
		bcryptCost: bcryptCost,
	}
}

func (d *Deriver) acquire(ctx context.Context) error {
	return d.sem.Acquire(ctx, 1)
}

// HashCredential is HashCredential bounded by the semaphore.
func (d *Deriver) HashCredential(ctx context.Context, raw []byte) ([]byte, error) {
	if err := d.acquire(ctx); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)
	return HashCredential(raw, d.bcryptCost)
}

// VerifyCredential is VerifyCredential bounded by the semaphore.
func (d *Deriver) VerifyCredential(ctx context.Context, raw, hash []byte) (bool, error) {
	if err := d.acquire(ctx); err != nil {
		return false, err
	}
	defer d.sem.Release(1)
	return VerifyCredential(raw, hash), nil
}

// Protect is Protect bounded by the semaphore.
func (d *Deriver) Protect(ctx context.Context, plaintext, masterCredential []byte) ([]byte, error) {
	if err := d.acquire(ctx); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)
	return Protect(plaintext, masterCredential, d.iterations)
}

// Unprotect is Unprotect bounded by the semaphore.
func (d *Deriver) Unprotect(ctx context.Context, blob, masterCredential []byte) ([]byte, error) {
	if err := d.acquire(ctx); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)
	return Unprotect(blob, masterCredential, d.iterations)
}
