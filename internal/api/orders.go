package api

import (
	"context"
	"net/http"
	"net/url"
)

const (
	pathOrders         = "/api/orders/"
	pathCalculatePrice = "/api/orders/calculate-price/"
	pathExpertSystems  = "/api/expert-systems/"
)

// ListOrders returns one page of orders.
func (c *Client) ListOrders(ctx context.Context, opts ListOptions) (*Page[Order], error) {
	return listPage[Order](ctx, c, pathOrders, nil, opts)
}

// Order fetches a single order.
func (c *Client) Order(ctx context.Context, id ID) (*Order, error) {
	var o Order
	if err := c.get(ctx, pathOrders+url.PathEscape(string(id))+"/", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder places an order for the selected expert systems.
func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	if err := validateSelection(in.ExpertSystems); err != nil {
		return nil, err
	}
	if in.ProfileID == "" {
		return nil, &Error{Kind: KindValidation, Fields: map[string][]string{"profile_id": {"This field is required"}}}
	}
	var o Order
	if err := c.send(ctx, http.MethodPost, pathOrders, in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ExpertSystems lists the purchasable expert systems.
func (c *Client) ExpertSystems(ctx context.Context) ([]ExpertSystemInfo, error) {
	return filtered[ExpertSystemInfo](ctx, c, pathExpertSystems, nil)
}

// CalculatePrice asks the backend to price a selection, discounts included.
func (c *Client) CalculatePrice(ctx context.Context, systems []ExpertSystem) (*PriceQuote, error) {
	if err := validateSelection(systems); err != nil {
		return nil, err
	}
	var q PriceQuote
	body := map[string][]ExpertSystem{"expert_systems": systems}
	if err := c.send(ctx, http.MethodPost, pathCalculatePrice, body, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func validateSelection(systems []ExpertSystem) error {
	f := fieldErrors{}
	if len(systems) == 0 {
		f.add("expert_systems", "Select at least one expert system")
	}
	seen := make(map[ExpertSystem]bool, len(systems))
	for _, s := range systems {
		if !s.Valid() {
			f.add("expert_systems", "Unknown expert system "+string(s))
		}
		if seen[s] {
			f.add("expert_systems", "Duplicate expert system "+string(s))
		}
		seen[s] = true
	}
	return f.err()
}
