// Package nexus is the client for the remote index service: the
// aggregator that answers which IDs belong in a stream and resolves
// full entity details by ID. The engine never retries here; failures
// map onto the errs taxonomy and surface to the caller.
package nexus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/pubky/franky-sub007/pkg/errs"
	"github.com/pubky/franky-sub007/pkg/logger"
	"github.com/pubky/franky-sub007/pkg/models"
)

// Client talks to one index service endpoint.
type Client struct {
	base    string
	client  *fasthttp.Client
	timeout time.Duration
}

// New builds a client for the given base URL, e.g. "https://nexus.example".
func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:    base,
		client:  &fasthttp.Client{},
		timeout: timeout,
	}
}

func (c *Client) do(ctx context.Context, method, uri string, body []byte, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrRemoteUnavailable, err)
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}
	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		logger.Warn("nexus_request_failed", "uri", uri, "error", err)
		return fmt.Errorf("%w: %w", errs.ErrRemoteUnavailable, err)
	}
	if err := errs.FromStatus(resp.StatusCode()); err != nil {
		logger.Warn("nexus_request_rejected", "uri", uri, "status", resp.StatusCode())
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		logger.Warn("nexus_response_unparseable", "uri", uri, "error", err)
		return fmt.Errorf("%w: %w", errs.ErrInvalidResponse, err)
	}
	return nil
}

// FetchStreamPage returns one membership page for a stream: IDs only.
func (c *Client) FetchStreamPage(ctx context.Context, stream string, skip, limit int, viewerID string) (models.StreamPage, error) {
	q := url.Values{}
	q.Set("id", stream)
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	if viewerID != "" {
		q.Set("viewer_id", viewerID)
	}
	var page models.StreamPage
	err := c.do(ctx, fasthttp.MethodGet, c.base+"/v0/stream?"+q.Encode(), nil, &page)
	return page, err
}

type byIDsRequest struct {
	IDs      []string `json:"ids"`
	ViewerID string   `json:"viewer_id,omitempty"`
}

// FetchPostsByIDs resolves full post views for the given composite IDs.
// IDs unknown to the index service are absent from the result.
func (c *Client) FetchPostsByIDs(ctx context.Context, ids []string, viewerID string) ([]models.PostView, error) {
	body, err := json.Marshal(byIDsRequest{IDs: ids, ViewerID: viewerID})
	if err != nil {
		return nil, err
	}
	var out []models.PostView
	if err := c.do(ctx, fasthttp.MethodPost, c.base+"/v0/posts/by_ids", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchUsersByIDs resolves full user views for the given owner IDs.
func (c *Client) FetchUsersByIDs(ctx context.Context, ids []string, viewerID string) ([]models.UserView, error) {
	body, err := json.Marshal(byIDsRequest{IDs: ids, ViewerID: viewerID})
	if err != nil {
		return nil, err
	}
	var out []models.UserView
	if err := c.do(ctx, fasthttp.MethodPost, c.base+"/v0/users/by_ids", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchBootstrap returns the one-shot session seed for an owner.
func (c *Client) FetchBootstrap(ctx context.Context, owner string) (models.Bootstrap, error) {
	var out models.Bootstrap
	err := c.do(ctx, fasthttp.MethodGet, c.base+"/v0/bootstrap/"+url.PathEscape(owner), nil, &out)
	return out, err
}
