package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

var ErrLeaseHeld = errors.New("seen store is locked by another run")

// Lease is an exclusive advisory lock guarding the seen store across
// processes. Only the holder may persist.
type Lease struct {
	fl      *flock.Flock
	timeout time.Duration
	retry   time.Duration
}

// NewLease locks <path>.lock. A zero timeout tries exactly once.
func NewLease(storePath string, timeout time.Duration) *Lease {
	return &Lease{
		fl:      flock.New(storePath + ".lock"),
		timeout: timeout,
		retry:   250 * time.Millisecond,
	}
}

func (l *Lease) Acquire(ctx context.Context) error {
	if l.timeout <= 0 {
		ok, err := l.fl.TryLock()
		if err != nil {
			return fmt.Errorf("lock %s: %w", l.fl.Path(), err)
		}
		if !ok {
			return ErrLeaseHeld
		}
		return nil
	}

	lctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	ok, err := l.fl.TryLockContext(lctx, l.retry)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrLeaseHeld
		}
		return fmt.Errorf("lock %s: %w", l.fl.Path(), err)
	}
	if !ok {
		return ErrLeaseHeld
	}
	return nil
}

func (l *Lease) Release() error {
	return l.fl.Unlock()
}
