package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/seer/internal/app"
)

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [order-id]",
		Short: "Open the live dashboard for an order",
		Long: `Open the terminal dashboard for an order's jobs. Without an order id the
order watched last (or created last) is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.Options{
				PrefsPath: c.prefsPath,
				Config:    &c.cfg,
			}
			if len(args) == 1 {
				opts.OrderID = args[0]
			}
			// The verbose console copy would draw over the dashboard, so
			// the app builds its own file-only logger in that case.
			if !c.verbose {
				opts.Logger = c.log
			}
			return app.Run(cmd.Context(), opts)
		},
	}
}
