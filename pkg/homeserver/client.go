// Package homeserver is the client for the user-owned origin store: a
// plain GET/PUT interface keyed by per-owner paths. Absence on GET is an
// expected state, distinguished from server errors.
package homeserver

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/pubky/franky-sub007/pkg/errs"
	"github.com/pubky/franky-sub007/pkg/logger"
)

// Client talks to one homeserver endpoint.
type Client struct {
	base    string
	client  *fasthttp.Client
	timeout time.Duration
}

// New builds a client for the given base URL.
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

func (c *Client) uri(owner, path string) string {
	return c.base + "/" + url.PathEscape(owner) + path
}

// Get reads a document. The second return is false when the document
// does not exist, which is not an error.
func (c *Client) Get(ctx context.Context, owner, path string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", errs.ErrRemoteUnavailable, err)
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.uri(owner, path))
	req.Header.SetMethod(fasthttp.MethodGet)
	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		logger.Warn("homeserver_get_failed", "owner", owner, "path", path, "error", err)
		return nil, false, fmt.Errorf("%w: %w", errs.ErrRemoteUnavailable, err)
	}
	if resp.StatusCode() == fasthttp.StatusNotFound {
		return nil, false, nil
	}
	if err := errs.FromStatus(resp.StatusCode()); err != nil {
		return nil, false, err
	}
	return append([]byte(nil), resp.Body()...), true, nil
}

// Put writes a document. Writes are idempotent on the remote side.
func (c *Client) Put(ctx context.Context, owner, path string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrRemoteUnavailable, err)
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.uri(owner, path))
	req.Header.SetMethod(fasthttp.MethodPut)
	req.Header.SetContentType("application/json")
	req.SetBody(body)
	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		logger.Warn("homeserver_put_failed", "owner", owner, "path", path, "error", err)
		return fmt.Errorf("%w: %w", errs.ErrRemoteUnavailable, err)
	}
	return errs.FromStatus(resp.StatusCode())
}
