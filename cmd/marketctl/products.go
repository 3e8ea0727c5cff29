package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-market-client/internal/utils"
	"github.com/jrsteele09/go-market-client/market"
	"github.com/jrsteele09/go-market-client/products"
)

func newProductsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"p"},
		Short:   "List, view and post products",
	}
	cmd.AddCommand(
		newProductsListCommand(a),
		newProductsGetCommand(a),
		newProductsCreateCommand(a),
		newProductsUpdateCommand(a),
		newProductsDeleteCommand(a),
	)
	return cmd
}

func newProductsListCommand(a *app) *cobra.Command {
	var (
		q    market.ListQuery
		sort string
		mine bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page of products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Sort = products.SortOrder(sort)
			ctx := cmd.Context()

			var (
				list []products.Product
				err  error
			)
			if mine {
				var userID string
				if userID, err = a.profile.UserID(ctx); err != nil {
					return err
				}
				list, err = a.products.ListByOwner(ctx, userID, q)
			} else {
				list, err = a.products.List(ctx, q)
			}
			if err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", products.DefaultLimit, "products per page")
	cmd.Flags().StringVar(&q.Search, "search", "", "search title and description")
	cmd.Flags().StringVar(&sort, "sort", "", "sort by price: asc or desc")
	cmd.Flags().BoolVar(&mine, "mine", false, "only products you posted")
	return cmd
}

func newProductsGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.products.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newProductsCreateCommand(a *app) *cobra.Command {
	var (
		form       market.ProductForm
		location   market.Location
		imagePaths []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a product with 1 to 5 images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				if location.Name == "" {
					location.Name = a.geocoder.LocationName(ctx, location.Latitude, location.Longitude)
				}
				form.Location = &location
			}
			for _, path := range imagePaths {
				img, err := readImage(path)
				if err != nil {
					return err
				}
				form.Images = append(form.Images, img)
			}

			p, err := a.products.Create(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created", p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "title")
	cmd.Flags().StringVar(&form.Description, "description", "", "description")
	cmd.Flags().Float64Var(&form.Price, "price", 0, "price")
	cmd.Flags().Float64Var(&location.Latitude, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&location.Longitude, "lng", 0, "longitude")
	cmd.Flags().StringVar(&location.Name, "location", "", "location name, looked up from lat/lng when empty")
	cmd.Flags().StringArrayVar(&imagePaths, "image", nil, "image file (JPEG or PNG), repeatable")
	return cmd
}

func newProductsUpdateCommand(a *app) *cobra.Command {
	var (
		title, description string
		price              float64
		location           market.Location
		imagePaths         []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a product you posted; images replace the existing set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()
			update := market.ProductUpdate{
				Title:       utils.PtrIf(flags.Changed("title"), title),
				Description: utils.PtrIf(flags.Changed("description"), description),
				Price:       utils.PtrIf(flags.Changed("price"), price),
			}
			if flags.Changed("lat") || flags.Changed("lng") {
				if location.Name == "" {
					location.Name = a.geocoder.LocationName(ctx, location.Latitude, location.Longitude)
				}
				update.Location = &location
			}
			for _, path := range imagePaths {
				img, err := readImage(path)
				if err != nil {
					return err
				}
				update.Images = append(update.Images, img)
			}

			p, err := a.products.Update(ctx, args[0], update)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().Float64Var(&price, "price", 0, "price")
	cmd.Flags().Float64Var(&location.Latitude, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&location.Longitude, "lng", 0, "longitude")
	cmd.Flags().StringVar(&location.Name, "location", "", "location name, looked up from lat/lng when empty")
	cmd.Flags().StringArrayVar(&imagePaths, "image", nil, "image file (JPEG or PNG), repeatable")
	return cmd
}

func newProductsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product you posted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.products.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}
}

func printProducts(w io.Writer, list []products.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tLOCATION")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", p.ID, p.Title, p.Price, p.Location.Name)
	}
	_ = tw.Flush()
}

func readImage(path string) (market.ImageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return market.ImageFile{}, errors.Wrapf(err, "read image %s", path)
	}
	return market.ImageFile{Name: filepath.Base(path), Data: data}, nil
}
