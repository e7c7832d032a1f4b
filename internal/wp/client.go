// Package wp is a client for the remote content API: a WordPress-style
// paginated REST collection. The engine treats the API as opaque — a root
// document listing content-type endpoints, and per-endpoint paginated
// record arrays.
package wp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// apiRoot is the path of the API root document under a site URL.
	apiRoot = "/wp-json/wp/v2"

	// DefaultPerPage is the page size used by paginated fetches.
	DefaultPerPage = 50

	probeTimeout = 12 * time.Second
	fetchTimeout = 30 * time.Second
)

// Client provides access to a remote site's content API.
type Client struct {
	siteURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given (already normalized) site URL.
func NewClient(siteURL string) *Client {
	return &Client{
		siteURL:    strings.TrimRight(siteURL, "/"),
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
}

// ContentType describes one registered content-type endpoint from the
// site's root document.
type ContentType struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	RestBase string `json:"rest_base"`
}

// Probe checks that the site's API root answers with a 2xx. It is the
// lightweight reachability test behind "test connection" and never takes
// longer than the probe timeout.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.siteURL+apiRoot, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reaching %s: %w", c.siteURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("site API answered %d", resp.StatusCode)
	}
	return nil
}

// ContentTypes fetches the registered content-type endpoints. The root
// document maps slug -> type descriptor; some sites answer with an array
// instead, and both shapes are accepted.
func (c *Client) ContentTypes(ctx context.Context) ([]ContentType, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.siteURL+apiRoot+"/types", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching content types: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("content types API error (%d): %s", resp.StatusCode, string(body))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading content types: %w", err)
	}

	var asMap map[string]ContentType
	if err := json.Unmarshal(raw, &asMap); err == nil {
		types := make([]ContentType, 0, len(asMap))
		for slug, ct := range asMap {
			if ct.Slug == "" {
				ct.Slug = slug
			}
			types = append(types, ct)
		}
		return types, nil
	}

	var asList []ContentType
	if err := json.Unmarshal(raw, &asList); err == nil {
		return asList, nil
	}
	return nil, fmt.Errorf("unexpected content types document shape")
}

// Page holds one page of raw records plus the remote's reported total.
type Page struct {
	Records []map[string]any
	// Total is the collection size reported by the X-WP-Total header,
	// or -1 when the site does not report one.
	Total int
}

// FetchPage fetches one page of raw records from an endpoint. Page
// numbers start at 1. A page past the end returns zero records; WordPress
// signals it with a 400, which is treated the same way.
func (c *Client) FetchPage(ctx context.Context, restBase string, page, perPage int) (*Page, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	endpoint := fmt.Sprintf("%s%s/%s?page=%d&per_page=%d",
		c.siteURL, apiRoot, url.PathEscape(restBase), page, perPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page %d of %s: %w", page, restBase, err)
	}
	defer resp.Body.Close()

	// Past-the-end page.
	if resp.StatusCode == http.StatusBadRequest && page > 1 {
		io.Copy(io.Discard, resp.Body)
		return &Page{Total: -1}, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("endpoint %s answered %d: %s", restBase, resp.StatusCode, string(body))
	}

	var records []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding page %d of %s: %w", page, restBase, err)
	}

	total := -1
	if h := resp.Header.Get("X-WP-Total"); h != "" {
		if n, err := strconv.Atoi(h); err == nil {
			total = n
		}
	}

	return &Page{Records: records, Total: total}, nil
}

// FetchSample fetches a single record from an endpoint, used to seed
// field-mapping suggestions. Returns nil without error when the endpoint
// is empty.
func (c *Client) FetchSample(ctx context.Context, restBase string) (map[string]any, error) {
	p, err := c.FetchPage(ctx, restBase, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(p.Records) == 0 {
		return nil, nil
	}
	return p.Records[0], nil
}

// SiteURL returns the normalized site URL the client was built with.
func (c *Client) SiteURL() string {
	return c.siteURL
}
