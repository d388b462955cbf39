// SPDX-License-Identifier: MIT

// Package fsutil provides filesystem helpers: path confinement for
// untrusted relative paths and atomic durable file writes.
package fsutil

import (
	"context"
	"fmt"
	"io"

	"github.com/google/renameio/v2"

	"github.com/greysonlalonde/js-utilities/internal/log"
)

// WriteAtomic writes a file atomically and durably: the content is
// streamed to a temp file which is fsynced and renamed over path.
// Readers never observe a partially written file.
func WriteAtomic(ctx context.Context, path string, write func(io.Writer) error) error {
	logger := log.FromContext(ctx)

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		// Cleanup on error - renameio removes temp file if not committed
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending file")
		}
	}()

	if err := write(pending); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}

	// CloseAtomicallyReplace: fsync + rename (durable + atomic)
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace file: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to path with the same guarantees as
// WriteAtomic.
func WriteFileAtomic(ctx context.Context, path string, data []byte) error {
	return WriteAtomic(ctx, path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
