package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jogardn/fireworks-storefront/internal/tracking"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/spf13/cobra"
)

func newTrackCommand(opts *rootOptions) *cobra.Command {
	var orderNumber, mobile string
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Look up an order by number or by mobile",
		Example: `  storefront track --order KC1001
  storefront track --mobile 9876543210`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var query tracking.Query
			switch {
			case orderNumber != "" && mobile != "":
				return errors.New("use either --order or --mobile, not both")
			case orderNumber != "":
				query = tracking.Query{Mode: tracking.ModeOrder, Value: orderNumber}
			default:
				query = tracking.Query{Mode: tracking.ModeMobile, Value: mobile}
			}

			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			tracker := tracking.NewTracker(newBackendClient(cfg, logger), logger)
			result, err := tracker.Lookup(cmd.Context(), query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Order != nil {
				return printTrackedOrder(out, *result.Order)
			}
			return printMobileTracking(out, *result.Mobile)
		},
	}
	cmd.Flags().StringVar(&orderNumber, "order", "", "order number, e.g. KC1001")
	cmd.Flags().StringVar(&mobile, "mobile", "", "customer mobile number")
	return cmd
}

func printTrackedOrder(out io.Writer, o models.TrackedOrder) error {
	fmt.Fprintf(out, "Order %s (%s)\n", o.OrderNumber, o.OrderDate)
	fmt.Fprintf(out, "Status: %s, payment %s\n", o.Status, o.PaymentStatus)
	fmt.Fprintf(out, "Customer: %s, %s\n", o.Customer.Name, o.Customer.Mobile)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tQTY\tRATE\tTOTAL")
	for _, item := range o.Items {
		fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\n", item.ProductName, item.Quantity, item.UnitPrice, item.Total)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Subtotal: %s  Discount: %s  Net: %s\n", o.Subtotal, o.Discount, o.NetTotal)
	return nil
}

func printMobileTracking(out io.Writer, m models.MobileTracking) error {
	fmt.Fprintf(out, "%s (%s): %d orders, %s total\n",
		m.Customer.Name, m.Customer.Mobile, m.Summary.TotalOrders, m.Summary.TotalAmount)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tDATE\tSTATUS\tNET")
	for _, o := range m.Orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.OrderNumber, o.OrderDate, o.Status, o.NetTotal)
	}
	return w.Flush()
}
