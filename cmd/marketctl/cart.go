package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCartCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.products.Get(ctx, args[0])
			if err != nil {
				return err
			}
			c, err := a.loadCart(ctx)
			if err != nil {
				return err
			}
			c.Add(*p)
			if err := a.saveCart(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s, %d items in cart\n", p.Title, c.ItemCount())
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove one of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.loadCart(ctx)
			if err != nil {
				return err
			}
			c.Remove(args[0])
			return a.saveCart(ctx, c)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.loadCart(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tQTY\tPRICE")
			for _, item := range c.Items() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", item.Product.ID, item.Product.Title, item.Quantity, item.Product.Price)
			}
			fmt.Fprintf(tw, "\t%d items\t\t%.2f\n", c.ItemCount(), c.Total())
			return tw.Flush()
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.loadCart(cmd.Context())
			if err != nil {
				return err
			}
			c.Clear()
			return a.saveCart(cmd.Context(), c)
		},
	}

	cmd.AddCommand(add, remove, list, clearCmd)
	return cmd
}
