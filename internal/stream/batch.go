package stream

import (
	"context"
	"fmt"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// BatchStreamer groups user rows into batches of a fixed size. Rows are read
// from the cursor as each batch is requested; only the current batch is held.
// The last batch holds the remainder.
type BatchStreamer struct {
	rows      *Streamer[pgrows.User]
	batchSize int
	current   pgrows.Batch
}

// NewBatchStreamer returns an error wrapping pgrows.ErrInvalidConfig when batchSize is not positive.
func NewBatchStreamer(source Source, batchSize int, logger pgrows.Logger) (*BatchStreamer, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d: %w", batchSize, pgrows.ErrInvalidConfig)
	}
	return &BatchStreamer{
		rows:      NewRowStreamer(source, logger),
		batchSize: batchSize,
	}, nil
}

// Next reads the next batch. A failure mid-batch discards the partial batch.
func (b *BatchStreamer) Next(ctx context.Context) bool {
	b.current = nil
	batch := make(pgrows.Batch, 0, b.batchSize)
	for len(batch) < b.batchSize && b.rows.Next(ctx) {
		batch = append(batch, b.rows.Value())
	}
	if b.rows.Err() != nil || len(batch) == 0 {
		return false
	}
	b.current = batch
	return true
}

// Batch returns the batch read by the last successful Next.
func (b *BatchStreamer) Batch() pgrows.Batch {
	return b.current
}

// Err returns the failure that ended the stream, wrapped in pgrows.ErrStream.
func (b *BatchStreamer) Err() error {
	return b.rows.Err()
}

// State reports the lifecycle position of the underlying rows.
func (b *BatchStreamer) State() State {
	return b.rows.State()
}

// Close releases the rows and connection.
func (b *BatchStreamer) Close() {
	b.current = nil
	b.rows.Close()
}
