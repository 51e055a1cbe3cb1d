package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/prefs"
)

func (c *cli) expertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "experts",
		Short: "List the expert systems and their prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.api(cmd.Context())
			if err != nil {
				return err
			}
			experts, err := client.ExpertSystems(cmd.Context())
			if err != nil {
				return fmt.Errorf("list expert systems: %w", err)
			}
			rows := make([][]string, len(experts))
			for i, e := range experts {
				name := e.Name
				if name == "" {
					name = e.ID.Label()
				}
				rows[i] = []string{string(e.ID), name, formatPrice(e.Price), formatDuration(e.EstimatedDuration())}
			}
			renderTable(c.out, []string{"ID", "Name", "Price", "Takes"}, rows)
			return nil
		},
	}
}

func (c *cli) priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price <expert>[,<expert>...]",
		Short: "Quote a selection of expert systems, discounts included",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			systems, err := parseExperts(args)
			if err != nil {
				return err
			}
			client, err := c.api(cmd.Context())
			if err != nil {
				return err
			}
			quote, err := client.CalculatePrice(cmd.Context(), systems)
			if err != nil {
				return fmt.Errorf("calculate price: %w", err)
			}
			c.printQuote(systems, quote)
			return nil
		},
	}
}

func (c *cli) printQuote(systems []api.ExpertSystem, q *api.PriceQuote) {
	fields := [][2]string{
		{"Selection", expertList(systems)},
		{"Total", formatPrice(q.Total)},
	}
	if q.Discount > 0 {
		fields = append(fields, [2]string{"Discount", okStyle.Render("-" + formatPrice(q.Discount))})
	}
	fields = append(fields, [2]string{"To pay", formatPrice(q.Final)})
	renderFields(c.out, fields)
}

func (c *cli) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Place and inspect orders",
	}
	cmd.AddCommand(c.ordersListCmd(), c.ordersShowCmd(), c.ordersCreateCmd())
	return cmd
}

func (c *cli) ordersListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			orders, err := api.Collect(ctx, limit, client.ListOrders)
			if err != nil {
				return fmt.Errorf("list orders: %w", err)
			}
			rows := make([][]string, len(orders))
			for i, o := range orders {
				rows[i] = []string{o.ID.String(), o.ProfileID.String(), expertList(o.ExpertSystems), formatPrice(o.TotalPrice), o.Status, formatTime(o.CreatedAt)}
			}
			renderTable(c.out, []string{"ID", "Profile", "Analyses", "Price", "Status", "Created"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum orders to list (0 = all)")
	return cmd
}

func (c *cli) ordersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show an order and its jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := api.ID(args[0])
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			order, err := client.Order(ctx, id)
			if err != nil {
				return fmt.Errorf("get order %s: %w", id, err)
			}
			list, err := client.OrderJobs(ctx, id)
			if err != nil {
				return fmt.Errorf("list jobs of order %s: %w", id, err)
			}
			c.printOrder(order)
			c.printf("\n")
			c.printJobs(list)
			return nil
		},
	}
}

func (c *cli) printOrder(o *api.Order) {
	fields := [][2]string{
		{"Order", o.ID.String()},
		{"Profile", o.ProfileID.String()},
		{"Analyses", expertList(o.ExpertSystems)},
		{"Price", formatPrice(o.TotalPrice)},
	}
	if o.DiscountApplied > 0 {
		fields = append(fields, [2]string{"Discount", formatPrice(o.DiscountApplied)})
	}
	fields = append(fields,
		[2]string{"Status", o.Status},
		[2]string{"Created", formatTime(o.CreatedAt)},
	)
	renderFields(c.out, fields)
}

func (c *cli) ordersCreateCmd() *cobra.Command {
	var (
		profile string
		experts []string
		yes     bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Order analyses for a profile",
		Long: `Order one or more expert-system analyses for a profile. The price is
quoted first and confirmed unless --yes is given. The new order becomes the
default for "seer watch".`,
		Example: "  seer orders create --profile 12 --experts bazi,ziwei",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			systems, err := parseExperts(experts)
			if err != nil {
				return err
			}
			client, err := c.api(ctx)
			if err != nil {
				return err
			}

			quote, err := client.CalculatePrice(ctx, systems)
			if err != nil {
				return fmt.Errorf("calculate price: %w", err)
			}
			c.printQuote(systems, quote)
			if !yes {
				answer, err := c.ask("Place this order? [y/N]", false)
				if err != nil {
					return err
				}
				if answer != "y" && answer != "Y" && answer != "yes" {
					c.printf("Order not placed\n")
					return nil
				}
			}

			order, err := client.CreateOrder(ctx, api.OrderInput{ProfileID: api.ID(profile), ExpertSystems: systems})
			if err != nil {
				printFieldErrors(c, err)
				return fmt.Errorf("create order: %w", err)
			}
			if err := prefs.Update(c.prefsPath, func(p *prefs.Prefs) { p.LastOrder = order.ID.String() }); err != nil {
				c.log.Warn("save last order failed", zap.Error(err))
			}
			c.printf("%s Placed order %s. Follow it with `seer watch`.\n", okStyle.Render("✓"), order.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&profile, "profile", "p", "", "profile id")
	f.StringSliceVarP(&experts, "experts", "e", nil, "expert systems, e.g. bazi,ziwei")
	f.BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("experts")
	return cmd
}
