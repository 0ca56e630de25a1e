package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Payphone-Digital/content-api/internal/service"
)

type tokenOptions struct {
	subject    string
	email      string
	name       string
	subscribed bool
}

// newTokenCommand issues access tokens for the write endpoints. The service
// has no login flow of its own.
func newTokenCommand(opts *rootOptions) *cobra.Command {
	t := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token",
		Example: `  content-api token --sub editor-1 --email editor@example.com
  curl -H "Authorization: Bearer $(content-api token --sub editor-1)" ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jwtService := service.NewJWTService(opts.config.JWT.Secret, opts.config.JWT.ExpirationTime)
			token, err := jwtService.GenerateToken(t.subject, t.email, t.name, t.subscribed)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&t.subject, "sub", "", "token subject (required)")
	cmd.Flags().StringVar(&t.email, "email", "", "email claim")
	cmd.Flags().StringVar(&t.name, "name", "", "name claim")
	cmd.Flags().BoolVar(&t.subscribed, "subscribed", false, "isSubscribed claim")
	_ = cmd.MarkFlagRequired("sub")

	return cmd
}
