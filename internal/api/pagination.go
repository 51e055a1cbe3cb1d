package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Page is one page of a paginated list endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether another page follows.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

// ListOptions selects a page. Zero values leave the backend defaults.
type ListOptions struct {
	Page     int
	PageSize int
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return q
}

// Collect walks pages starting at page 1 until there is no next page or
// limit items were gathered. limit <= 0 means no limit.
func Collect[T any](ctx context.Context, limit int, fetch func(context.Context, ListOptions) (*Page[T], error)) ([]T, error) {
	var out []T
	opts := ListOptions{Page: 1}
	for {
		page, err := fetch(ctx, opts)
		if err != nil {
			return out, fmt.Errorf("fetch page %d: %w", opts.Page, err)
		}
		out = append(out, page.Results...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if !page.HasNext() || len(page.Results) == 0 {
			return out, nil
		}
		opts.Page++
	}
}

func listPage[T any](ctx context.Context, c *Client, path string, query url.Values, opts ListOptions) (*Page[T], error) {
	q := opts.values()
	for k, v := range query {
		q[k] = v
	}
	var page Page[T]
	if err := c.get(ctx, path, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// filtered fetches a list endpoint that may answer with either a bare array
// or a page envelope, returning the items of the first page.
func filtered[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &Error{Kind: KindDecode, Method: http.MethodGet, Path: path, Err: fmt.Errorf("decode list: %w", err)}
		}
		return items, nil
	}
	var page Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, &Error{Kind: KindDecode, Method: http.MethodGet, Path: path, Err: fmt.Errorf("decode page: %w", err)}
	}
	return page.Results, nil
}
