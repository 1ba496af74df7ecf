package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Force a fresh password login, replacing any stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if username == "" {
				username = app.cfg.Auth.Username
			}
			if password == "" {
				password = app.cfg.Auth.Password
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password required (flags, config, or environment)")
			}

			if err := app.mgr.Login(ctx, username, password); err != nil {
				app.log.Error().Err(err).Msg("login failed")
				return err
			}

			app.log.Info().Str("account_id", app.mgr.AccountID()).Msg("logged in")
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Crunchyroll account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Crunchyroll account password")
	return cmd
}
