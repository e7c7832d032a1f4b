package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/parksync/internal/syncer"
)

const fetchTimeout = 30 * time.Second

// maxFetchBytes caps how much of a page is read. Marketing sites rarely
// exceed this; anything bigger is probably not prose.
const maxFetchBytes = 4 << 20

// FetchPage downloads one page and returns its plain text plus the
// in-domain links it references.
func FetchPage(ctx context.Context, client *http.Client, pageURL string) (string, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") && !strings.Contains(ct, "text/plain") {
		return "", nil, fmt.Errorf("fetching %s: unsupported content type %s", pageURL, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", pageURL, err)
	}

	text := syncer.StripHTML(string(body))
	links := extractLinks(string(body), pageURL)
	return text, links, nil
}

// extractLinks pulls same-host links out of an HTML page, resolved
// against the page URL and stripped of fragments.
func extractLinks(body, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	node, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				resolved := base.ResolveReference(ref)
				if resolved.Host != base.Host || (resolved.Scheme != "http" && resolved.Scheme != "https") {
					continue
				}
				resolved.Fragment = ""
				s := resolved.String()
				if !seen[s] {
					seen[s] = true
					links = append(links, s)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return links
}
