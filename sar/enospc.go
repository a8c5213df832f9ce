package sar

import (
	"context"
	"errors"
	"syscall"

	"github.com/dar-go/dar/uiface"
)

// retryOnENOSPC runs fn, and if it fails with ENOSPC, asks the operator
// (via interactor.Pause) to free space and retries indefinitely, the
// "Any write system-level ENOSPC converts to a recoverable pause asking
// the operator to free space; retries resume at the same logical
// offset" failure semantic. Any other error, or a Pause rejection,
// propagates immediately.
func retryOnENOSPC(ctx context.Context, interactor uiface.Interactor, fn func() error) error {
	for {
		err := fn()
		if err == nil || !errors.Is(err, syscall.ENOSPC) {
			return err
		}
		if interactor == nil {
			return err
		}
		if pauseErr := interactor.Pause("disk full -- free space and continue"); pauseErr != nil {
			return pauseErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
