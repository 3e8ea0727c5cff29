package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "marketctl",
		Short:         "Browse and sell on the marketplace from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.AddCommand(
		newBannerCommand(),
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoAmICommand(a),
		newSignupCommand(a),
		newVerifyCommand(a),
		newResendCommand(a),
		newForgotPasswordCommand(a),
		newProductsCommand(a),
		newProfileCommand(a),
		newCartCommand(a),
	)
	return root
}

func newBannerCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "banner",
		Short:  "Print the application banner",
		Hidden: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), figure.NewFigure("Market", "cybermedium", true).String())
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
