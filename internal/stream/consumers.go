package stream

import (
	"context"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// FilterBatches calls fn for every user older than minAge, in stream order.
// It stops at the first error from fn or from the stream and closes s.
func FilterBatches(ctx context.Context, s *BatchStreamer, minAge int, fn func(pgrows.User) error) error {
	defer s.Close()
	for s.Next(ctx) {
		for _, u := range s.Batch() {
			if u.Age <= minAge {
				continue
			}
			if err := fn(u); err != nil {
				return err
			}
		}
	}
	return s.Err()
}

// AverageAge computes the mean of a stream of ages holding a single value at a
// time. An empty stream averages to 0.
func AverageAge(ctx context.Context, ages *Streamer[int]) (float64, error) {
	defer ages.Close()
	var total, count int64
	for ages.Next(ctx) {
		total += int64(ages.Value())
		count++
	}
	if err := ages.Err(); err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	return float64(total) / float64(count), nil
}

// Take calls fn for at most n values and then closes s. n <= 0 means no limit.
func Take[T any](ctx context.Context, s *Streamer[T], n int, fn func(T) error) error {
	defer s.Close()
	for seen := 0; n <= 0 || seen < n; seen++ {
		if !s.Next(ctx) {
			break
		}
		if err := fn(s.Value()); err != nil {
			return err
		}
	}
	return s.Err()
}
