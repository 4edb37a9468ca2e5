package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/heimat-hq/listings-watcher/pkg/httpclient"
)

const (
	listingsPath = "/listings/listings"

	// DefaultTimeout applies when New builds its own HTTP client.
	DefaultTimeout = 15 * time.Second
)

// Client fetches listings from the backend. It keeps no state between calls
// and is safe for concurrent use.
type Client struct {
	base *url.URL
	http httpclient.Client
}

// New validates baseURL and returns a client using the given HTTP collaborator
// (a resty client with DefaultTimeout when nil).
func New(baseURL string, client httpclient.Client) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = httpclient.NewRestyClient(DefaultTimeout)
	}
	return &Client{base: base, http: client}, nil
}

// MustNew is like New but panics on a malformed base URL.
func MustNew(baseURL string, client httpclient.Client) *Client {
	c, err := New(baseURL, client)
	if err != nil {
		panic(err)
	}
	return c
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("backend url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend url %q has no host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("backend url %q must not carry a query or fragment", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u, nil
}

// ListingURL builds the request URL for ids. Each id is escaped on its own so
// the separating commas stay literal.
func (c *Client) ListingURL(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", ErrNoIDs
	}
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.QueryEscape(id)
	}

	u := *c.base
	u.Path += listingsPath
	u.RawQuery = "ids=" + strings.Join(escaped, ",")
	return u.String(), nil
}

// Fetch requests the listings for ids and decodes the response. Failures are
// *Error values of KindNetwork or KindDecode.
func (c *Client) Fetch(ctx context.Context, ids []string) (ListingResponse, error) {
	u, err := c.ListingURL(ids)
	if err != nil {
		return ListingResponse{}, err
	}

	resp, err := c.http.Get(ctx, u, nil)
	if err != nil {
		return ListingResponse{}, networkError(fmt.Errorf("get %s: %w", u, err), nil)
	}

	body := resp.Body()
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return ListingResponse{}, networkError(fmt.Errorf("get %s: unexpected status %d", u, code), body)
	}

	return Parse(body)
}

// Parse decodes a listings document. It never touches the network.
func Parse(data []byte) (ListingResponse, error) {
	if err := validateDocument(data); err != nil {
		return ListingResponse{}, decodeError(err, data)
	}

	var out ListingResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return ListingResponse{}, decodeError(fmt.Errorf("decode listings: %w", err), data)
	}
	return out, nil
}

// ParseString is Parse for text input.
func ParseString(text string) (ListingResponse, error) {
	return Parse([]byte(text))
}
