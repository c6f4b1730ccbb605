package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/balena-io/resin-preload/internal/fault"
)

// An application registered with the API.
type Application struct {
	ID         int    `json:"id"`
	Name       string `json:"app_name"`
	DeviceType string `json:"device_type"`
	Arch       string `json:"arch"`
}

// A built release of an application.
type Release struct {
	ID     int    `json:"id"`
	Commit string `json:"commit"`
	Status string `json:"status"`
}

// OData collection envelope returned by the API.
type collection[T any] struct {
	D []T `json:"d"`
}

// Fetches an application by id.
//
// An application that does not exist, or that the credential cannot see,
// is a domain fault.
func (c *Client) Application(ctx context.Context, id int) (*Application, error) {
	var result collection[Application]
	if err := c.get(ctx, fmt.Sprintf("/v5/application(%d)", id), &result); err != nil {
		return nil, err
	}

	if len(result.D) == 0 {
		return nil, fault.Domainf("application %d not found or not accessible", id)
	}
	return &result.D[0], nil
}

// Resolves a commit reference of an application to a concrete release.
//
// "latest" (or an empty reference) selects the most recent successful
// release. Anything else must match a successful release commit exactly;
// a miss is a domain fault.
func (c *Client) ResolveCommit(ctx context.Context, appID int, commit string) (*Release, error) {
	if commit == "" || commit == "latest" {
		return c.latestRelease(ctx, appID)
	}
	return c.releaseByCommit(ctx, appID, commit)
}

// Fetches the most recent successful release of an application.
func (c *Client) latestRelease(ctx context.Context, appID int) (*Release, error) {
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("belongs_to__application eq %d and status eq 'success'", appID))
	q.Set("$orderby", "created_at desc")
	q.Set("$top", "1")

	var result collection[Release]
	if err := c.get(ctx, "/v5/release?"+q.Encode(), &result); err != nil {
		return nil, err
	}

	if len(result.D) == 0 {
		return nil, fault.Domainf("application %d has no successful release to preload", appID)
	}
	return &result.D[0], nil
}

// Fetches a release by its exact commit hash.
func (c *Client) releaseByCommit(ctx context.Context, appID int, commit string) (*Release, error) {
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("belongs_to__application eq %d and commit eq '%s' and status eq 'success'", appID, commit))

	var result collection[Release]
	if err := c.get(ctx, "/v5/release?"+q.Encode(), &result); err != nil {
		return nil, err
	}

	if len(result.D) == 0 {
		return nil, fault.Domainf("no successful release with commit %q for application %d", commit, appID)
	}
	return &result.D[0], nil
}
