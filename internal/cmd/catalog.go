package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/spf13/cobra"
)

func newCatalogCommand(opts *rootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List active products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			query := backend.ProductQuery{Status: "active", Limit: cfg.Backend.ProductLimit}
			if category != "" {
				parsed, err := models.ParseCategory(category)
				if err != nil {
					return err
				}
				query.Category = parsed
			}

			page, err := newBackendClient(cfg, logger).Products(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("failed to fetch products: %w", err)
			}
			return printProducts(cmd.OutOrStdout(), page.Items)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list products in this category")
	return cmd
}

func printProducts(out io.Writer, products []models.Product) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME\tCATEGORY\tMRP\tPRICE\tOFF\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d%%\t%d\n",
			p.ID, p.ProductCode, p.Name, p.Category, p.OriginalPrice, p.Price, p.DiscountPercent(), p.CurrentStock)
	}
	fmt.Fprintf(w, "\n%d products\n", len(products))
	return w.Flush()
}
