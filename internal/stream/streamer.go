package stream

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgrows/internal/logging"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// State is the position of a stream in its lifecycle.
type State int

const (
	NotStarted State = iota
	Streaming
	Exhausted
	Errored
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Streaming:
		return "streaming"
	case Exhausted:
		return "exhausted"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Streamer yields one scanned value per row. Not safe for concurrent use.
type Streamer[T any] struct {
	source Source
	scan   pgx.RowToFunc[T]
	logger pgrows.Logger

	state   State
	rows    pgx.Rows
	release func()
	current T
	err     error
}

// New creates a streamer that converts each row with scan.
// A nil logger discards the termination diagnostic.
func New[T any](source Source, scan pgx.RowToFunc[T], logger pgrows.Logger) *Streamer[T] {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Streamer[T]{source: source, scan: scan, logger: logger}
}

// NewRowStreamer streams user rows selected as user_id, name, email, age.
func NewRowStreamer(source Source, logger pgrows.Logger) *Streamer[pgrows.User] {
	return New(source, pgx.RowToStructByName[pgrows.User], logger)
}

// NewAgeStreamer streams a single integer column.
func NewAgeStreamer(source Source, logger pgrows.Logger) *Streamer[int] {
	return New(source, pgx.RowTo[int], logger)
}

// Next advances to the next row. The source is opened on the first call.
// It returns false once the rows are exhausted, on failure, or after Close.
func (s *Streamer[T]) Next(ctx context.Context) bool {
	switch s.state {
	case Exhausted, Errored:
		return false
	case NotStarted:
		s.state = Streaming
		rows, release, err := s.source(ctx)
		if err != nil {
			s.fail(err)
			return false
		}
		s.rows, s.release = rows, release
	}

	if err := ctx.Err(); err != nil {
		s.fail(err)
		return false
	}

	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			s.fail(err)
			return false
		}
		s.state = Exhausted
		s.cleanup()
		return false
	}

	v, err := s.scan(s.rows)
	if err != nil {
		s.fail(err)
		return false
	}
	s.current = v
	return true
}

// Value returns the row read by the last successful Next.
func (s *Streamer[T]) Value() T {
	return s.current
}

// Err returns the failure that ended the stream, wrapped in pgrows.ErrStream.
func (s *Streamer[T]) Err() error {
	return s.err
}

// State reports the lifecycle position.
func (s *Streamer[T]) State() State {
	return s.state
}

// Close releases the rows and connection. A stream closed early counts as
// exhausted. Close is idempotent.
func (s *Streamer[T]) Close() {
	if s.state == NotStarted || s.state == Streaming {
		s.state = Exhausted
	}
	s.cleanup()
}

func (s *Streamer[T]) fail(err error) {
	s.err = fmt.Errorf("%w: %w", pgrows.ErrStream, err)
	s.state = Errored
	s.logger.Error("Error streaming data: %v", err)
	s.cleanup()
}

func (s *Streamer[T]) cleanup() {
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}
	if s.release != nil {
		s.release()
		s.release = nil
	}
}
