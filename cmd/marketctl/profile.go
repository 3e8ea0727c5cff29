package main

import (
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-market-client/market"
	"github.com/jrsteele09/go-market-client/users"
)

func newProfileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit profiles",
	}

	show := &cobra.Command{
		Use:   "show [user-id]",
		Short: "Show your profile or another user's",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				u   *users.User
				err error
			)
			if len(args) == 1 {
				u, err = a.profile.Get(cmd.Context(), args[0])
			} else {
				u, err = a.profile.Me(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}

	var (
		update    market.ProfileUpdate
		imagePath string
	)
	edit := &cobra.Command{
		Use:   "update",
		Short: "Change your name or picture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if imagePath != "" {
				img, err := readImage(imagePath)
				if err != nil {
					return err
				}
				update.ProfileImage = &img
			}
			u, err := a.profile.Update(cmd.Context(), update)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	edit.Flags().StringVar(&update.FirstName, "first-name", "", "first name")
	edit.Flags().StringVar(&update.LastName, "last-name", "", "last name")
	edit.Flags().StringVar(&imagePath, "image", "", "profile picture (JPEG or PNG)")
	_ = edit.MarkFlagRequired("first-name")

	cmd.AddCommand(show, edit)
	return cmd
}
