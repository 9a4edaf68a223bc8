package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/halcyonlabel/backend/pkg/jwt"
	"github.com/halcyonlabel/backend/pkg/validation"
	"github.com/spf13/cobra"
)

func newTokenCommand(ctx *cliContext) *cobra.Command {
	var userID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user (development only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := validation.ParseID(userID)
			if !ok {
				return fmt.Errorf("invalid user id %q", userID)
			}
			if ttl <= 0 {
				return errors.New("ttl must be positive")
			}
			token, err := jwt.GenerateToken(id.String(), jwt.AccessToken, ctx.settings().JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id the token is issued for")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
