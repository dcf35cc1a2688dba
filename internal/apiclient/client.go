// Package apiclient talks to the two upstream REST services: a read-only users
// directory and a read/write products store. It is the only network-facing
// component of the dashboard.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/penshort/adminboard/internal/metrics"
	"github.com/penshort/adminboard/internal/model"
)

// Operation names, used in errors and metrics.
const (
	OpListUsers     = "list_users"
	OpListProducts  = "list_products"
	OpGetProduct    = "get_product"
	OpAddProduct    = "add_product"
	OpDeleteProduct = "delete_product"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// UserAgent is sent with every upstream request.
const UserAgent = "adminboard/1.0"

// Options configures a Client.
type Options struct {
	UsersBaseURL    string
	ProductsBaseURL string
	// HTTPClient defaults to NewHTTPClient(0).
	HTTPClient *http.Client
	// Tokens defaults to no token.
	Tokens  TokenSource
	Metrics metrics.Recorder
}

// Client wraps the users and products base URLs. It is safe for concurrent use.
type Client struct {
	usersBase    string
	productsBase string
	http         *http.Client
	tokens       TokenSource
	metrics      metrics.Recorder
}

// New creates a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Client{
		usersBase:    strings.TrimSuffix(opts.UsersBaseURL, "/"),
		productsBase: strings.TrimSuffix(opts.ProductsBaseURL, "/"),
		http:         httpClient,
		tokens:       tokens,
		metrics:      recorder,
	}
}

// WithTokens returns a copy of c that reads bearer tokens from ts.
// The copy shares the underlying HTTP transport.
func (c *Client) WithTokens(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

// ListUsers fetches the users collection.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, OpListUsers, http.MethodGet, c.usersBase+"/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListProducts fetches the products collection.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, OpListProducts, http.MethodGet, c.productsBase+"/objects", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product. An id unknown upstream yields an error
// matching ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var product model.Product
	if err := c.do(ctx, OpGetProduct, http.MethodGet, c.productURL(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// AddProduct creates a product from the draft and returns the stored record,
// including the identifier assigned upstream.
func (c *Client) AddProduct(ctx context.Context, draft model.ProductDraft) (*model.Product, error) {
	var product model.Product
	payload := draft.Product()
	if err := c.do(ctx, OpAddProduct, http.MethodPost, c.productsBase+"/objects", &payload, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deletes a product. The response body is ignored.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return c.do(ctx, OpDeleteProduct, http.MethodDelete, c.productURL(id), nil, nil)
}

func (c *Client) productURL(id string) string {
	return c.productsBase + "/objects/" + url.PathEscape(id)
}

// do performs one call. body, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded 2xx response.
func (c *Client) do(ctx context.Context, op, method, target string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveUpstreamCall(op, outcome(err), time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrNetwork):
		return metrics.OutcomeNetworkError
	default:
		return metrics.OutcomeRemoteError
	}
}
