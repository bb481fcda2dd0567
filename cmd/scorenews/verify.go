package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deusflow/scorenews/internal/publisher"
)

func newVerifyTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-token",
		Short: "Check the Facebook page access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidatePublisher(); err != nil {
				return err
			}
			fb := publisher.NewFacebook(publisher.Config{
				PageID:      cfg.FBPageID,
				AccessToken: cfg.FBPageAccessToken,
				GraphURL:    cfg.FBGraphURL,
				Timeout:     cfg.RequestTimeout,
			}, nil)

			info, err := fb.VerifyToken(cmd.Context())
			if err != nil {
				var apiErr *publisher.APIError
				if errors.As(err, &apiErr) && apiErr.InvalidToken() {
					return fmt.Errorf("page access token is invalid or expired: %w", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token OK: page %q (id %s)\n", info.Name, info.ID)
			if info.ID != cfg.FBPageID {
				fmt.Fprintf(cmd.OutOrStdout(), "Warning: token belongs to %s, FB_PAGE_ID is %s\n", info.ID, cfg.FBPageID)
			}
			return nil
		},
	}
}
