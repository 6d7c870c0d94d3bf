package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/internal/cart"
	"github.com/jogardn/fireworks-storefront/internal/payment"
	"github.com/jogardn/fireworks-storefront/internal/pricing"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type quoteLine struct {
	productID int64
	quantity  int
}

func newQuoteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "quote <id>=<qty>...",
		Short:   "Price an ad-hoc cart against the live catalog",
		Example: "  storefront quote 1=10 4=5",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := parseQuoteLines(args)
			if err != nil {
				return err
			}

			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			client := newBackendClient(cfg, logger)
			page, err := client.Products(cmd.Context(), backend.ProductQuery{Status: "active", Limit: cfg.Backend.ProductLimit})
			if err != nil {
				return fmt.Errorf("failed to fetch products: %w", err)
			}

			byID := make(map[int64]models.Product, len(page.Items))
			for _, p := range page.Items {
				byID[p.ID] = p
			}
			lookup := func(id int64) (models.Product, bool) {
				p, ok := byID[id]
				return p, ok
			}

			c := cart.New()
			for _, line := range lines {
				if err := c.Adjust(line.productID, line.quantity, lookup); err != nil {
					return fmt.Errorf("product %d: %w", line.productID, err)
				}
			}

			minimum := payment.NewResolver(client, cfg.MinimumOrderValue(), logger).MinimumOrder(cmd.Context())
			return printQuote(cmd.OutOrStdout(), c.Items(), minimum)
		},
	}
}

func parseQuoteLines(args []string) ([]quoteLine, error) {
	lines := make([]quoteLine, 0, len(args))
	for _, arg := range args {
		id, qty, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid line %q, want <id>=<qty>", arg)
		}
		productID, err := strconv.ParseInt(id, 10, 64)
		if err != nil || productID <= 0 {
			return nil, fmt.Errorf("invalid product id in %q", arg)
		}
		quantity, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q", arg)
		}
		lines = append(lines, quoteLine{productID: productID, quantity: quantity})
	}
	return lines, nil
}

func printQuote(out io.Writer, items []models.CartItem, minimum decimal.Decimal) error {
	totals, err := pricing.Compute(items)
	if err != nil {
		return err
	}
	threshold := pricing.Assess(totals.Net, minimum)

	for _, item := range items {
		line, err := pricing.Line(item)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-24s x%-3d %10s\n", item.Product.Name, item.Quantity, pricing.Format(line.Net))
	}
	fmt.Fprintf(out, "Products: %d  Quantity: %d\n", totals.TotalProducts, totals.TotalQuantity)
	fmt.Fprintf(out, "Subtotal: %s\n", pricing.Format(totals.Subtotal))
	fmt.Fprintf(out, "Discount: %s\n", pricing.Format(totals.Discount))
	fmt.Fprintf(out, "Net: %s\n", pricing.Format(totals.Net))
	if threshold.BelowMinimum {
		fmt.Fprintf(out, "Below minimum order of %s, add %s more\n",
			pricing.Format(threshold.Minimum), pricing.Format(threshold.Shortfall))
	}
	return nil
}
