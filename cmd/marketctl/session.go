package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-market-client/market"
)

func newLoginCommand(a *app) *cobra.Command {
	var form market.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Password == "" {
				form.Password = os.Getenv("MARKET_PASSWORD")
			}
			if err := a.auth.Login(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged in as", form.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password (or MARKET_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoAmICommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			me, err := a.profile.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", strings.TrimSpace(me.FullName()), me.Email)
			return nil
		},
	}
}

func newSignupCommand(a *app) *cobra.Command {
	var (
		form      market.SignupForm
		imagePath string
	)
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account; a verification code is emailed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if imagePath != "" {
				img, err := readImage(imagePath)
				if err != nil {
					return err
				}
				form.ProfileImage = &img
			}
			msg, err := a.auth.Signup(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&imagePath, "image", "", "profile picture (JPEG or PNG)")
	return cmd
}

func newVerifyCommand(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "verify <code>",
		Short: "Verify an account with the emailed code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.VerifyOTP(cmd.Context(), email, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account verified")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResendCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resend-code <email>",
		Short: "Send a new verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.auth.ResendOTP(cmd.Context(), args[0])
		},
	}
}

func newForgotPasswordCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.auth.ForgotPassword(cmd.Context(), args[0])
		},
	}
}
