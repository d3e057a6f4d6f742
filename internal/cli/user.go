package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgrows/internal/users"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Look up or modify a single user",
}

var userGetCmd = &cobra.Command{
	Use:   "get <user_id>",
	Short: "Print one user as JSON",
	Args:  requireArgs([]string{"user_id"}, "3f8c2a1e-5b7d-4c09-9e61-0a2b4c6d8e10"),
	RunE:  runUserGet,
}

var userUpdateEmailCmd = &cobra.Command{
	Use:   "update-email <user_id> <email>",
	Short: "Change the email address of one user",
	Args:  requireArgs([]string{"user_id", "email"}, "3f8c2a1e-5b7d-4c09-9e61-0a2b4c6d8e10 new@example.com"),
	RunE:  runUserUpdateEmail,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userGetCmd, userUpdateEmailCmd)
}

func runUserGet(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { s.Close(err) }()

	id := args[0]
	user, err := newChain[pgrows.User](s, s.connector, "").Run(s.ctx, "",
		func(ctx context.Context, conn pgrows.Conn) (pgrows.User, error) {
			return users.GetByID(ctx, conn, id)
		})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), user)
}

func runUserUpdateEmail(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { s.Close(err) }()

	id, email := args[0], args[1]
	affected, err := newChain[int64](s, s.connector, "").Run(s.ctx, "",
		func(ctx context.Context, conn pgrows.Conn) (int64, error) {
			n, err := users.UpdateEmail(ctx, conn, id, email)
			if err != nil {
				return 0, err
			}
			if n == 0 {
				return 0, fmt.Errorf("user %s: %w", id, pgrows.ErrNotFound)
			}
			return n, nil
		})
	if err != nil {
		return err
	}

	s.logger.Info("Updated email of user %s", id)
	return writeJSON(cmd.OutOrStdout(), map[string]int64{"updated": affected})
}
