package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// AcquireLock takes an exclusive file lock guarding the target database
// so two migration runs can never interleave writes. Callers must Unlock.
func AcquireLock(ctx context.Context, targetPath string) (*flock.Flock, error) {
	fl := flock.New(targetPath + ".lock")

	locked, err := fl.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: held by another process", fl.Path())
	}
	return fl, nil
}
