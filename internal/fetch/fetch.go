// Package fetch runs independent read queries concurrently.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/pgrows/internal/lifecycle"
	"github.com/vvka-141/pgrows/internal/users"
	"github.com/vvka-141/pgrows/pkg/pgrows"
	"golang.org/x/sync/errgroup"
)

// Outcome is the value or the error of one branch.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Both runs a and b concurrently and waits for both. A failure in one branch
// neither cancels nor hides the other's result.
func Both[A, B any](ctx context.Context, a pgrows.Call[A], b pgrows.Call[B]) (Outcome[A], Outcome[B]) {
	var (
		g    errgroup.Group
		outA Outcome[A]
		outB Outcome[B]
	)
	g.Go(func() error {
		outA.Value, outA.Err = a(ctx)
		return nil
	})
	g.Go(func() error {
		outB.Value, outB.Err = b(ctx)
		return nil
	})
	_ = g.Wait()
	return outA, outB
}

// Result holds the two user lists of Concurrently.
type Result struct {
	All       Outcome[[]pgrows.User]
	OlderThan Outcome[[]pgrows.User]
}

// Concurrently fetches all users and users older than olderThan at the same
// time. Each branch gets its own connection scope from chain.
func Concurrently(ctx context.Context, chain lifecycle.Chain[[]pgrows.User], olderThan int) Result {
	all := chain.Build(users.SelectAllSQL, func(ctx context.Context, conn pgrows.Conn) ([]pgrows.User, error) {
		return users.FetchAll(ctx, conn)
	})
	older := chain.Build(fmt.Sprintf("%s ($1=%d)", users.SelectOlderThanSQL, olderThan),
		func(ctx context.Context, conn pgrows.Conn) ([]pgrows.User, error) {
			return users.FetchOlderThan(ctx, conn, olderThan)
		})

	a, b := Both(ctx, all, older)
	return Result{All: a, OlderThan: b}
}

// Err joins the branch errors.
func (r Result) Err() error {
	return errors.Join(r.All.Err, r.OlderThan.Err)
}
