package api

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

const pathProfiles = "/api/profiles/"

func profilePath(id ID) string {
	return pathProfiles + url.PathEscape(string(id)) + "/"
}

// ListProfiles returns one page of the user's profiles.
func (c *Client) ListProfiles(ctx context.Context, opts ListOptions) (*Page[Profile], error) {
	return listPage[Profile](ctx, c, pathProfiles, nil, opts)
}

// Profile fetches a single profile.
func (c *Client) Profile(ctx context.Context, id ID) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, profilePath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile validates in and creates a profile.
func (c *Client) CreateProfile(ctx context.Context, in ProfileInput) (*Profile, error) {
	if err := in.Validate(time.Now()); err != nil {
		return nil, err
	}
	var p Profile
	if err := c.send(ctx, http.MethodPost, pathProfiles, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile replaces a profile.
func (c *Client) UpdateProfile(ctx context.Context, id ID, in ProfileInput) (*Profile, error) {
	if err := in.Validate(time.Now()); err != nil {
		return nil, err
	}
	var p Profile
	if err := c.send(ctx, http.MethodPut, profilePath(id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PatchProfile changes only the fields set in patch.
func (c *Client) PatchProfile(ctx context.Context, id ID, patch ProfilePatch) (*Profile, error) {
	if err := patch.Validate(time.Now()); err != nil {
		return nil, err
	}
	var p Profile
	if err := c.send(ctx, http.MethodPatch, profilePath(id), patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProfile removes a profile.
func (c *Client) DeleteProfile(ctx context.Context, id ID) error {
	return c.send(ctx, http.MethodDelete, profilePath(id), nil, nil)
}
