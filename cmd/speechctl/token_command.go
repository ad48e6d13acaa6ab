package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/speech-insights/pkg/jwt"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var (
		scopes []string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <client-id>",
		Short: "Issue an API token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET is required to issue tokens")
			}
			if expiry <= 0 {
				expiry = cfg.JWT.Expiry
			}

			token, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, expiry).GenerateToken(args[0], scopes...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Restrict the token to these scopes (topics, analyses, audio)")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "Token lifetime (defaults to JWT_EXPIRY)")
	return cmd
}
