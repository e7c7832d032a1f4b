package ingest

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/knowledge"
)

// Crawler walks a site breadth-first from a start page and registers
// each kept page as a child knowledge source under one crawl root.
type Crawler struct {
	client *http.Client
	cfg    config.CrawlConfig
}

// NewCrawler creates a crawler with the given filter configuration.
func NewCrawler(cfg config.CrawlConfig) *Crawler {
	return &Crawler{client: &http.Client{}, cfg: cfg}
}

// Keep reports whether a page path passes the include/exclude filters.
// Excludes win over includes; an empty include list keeps everything.
func (c *Crawler) Keep(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	path := strings.TrimPrefix(u.Path, "/")
	if path == "" {
		path = "."
	}

	for _, pattern := range c.cfg.Exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return false
		}
	}
	if len(c.cfg.Include) == 0 {
		return true
	}
	for _, pattern := range c.cfg.Include {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// Crawl walks a site starting at startURL, creates a crawl root in the
// ledger, and adds each kept page as a child source. Per-page failures
// land in the child's error state; the crawl itself keeps going.
func (c *Crawler) Crawl(ctx context.Context, ledger *knowledge.Ledger, startURL, refreshInterval string) (*knowledge.Source, error) {
	root, err := ledger.Store().Create(ctx, &knowledge.Source{
		SourceType:      knowledge.SourceURL,
		Name:            startURL,
		Location:        startURL,
		RefreshInterval: refreshInterval,
	})
	if err != nil {
		return nil, err
	}

	c.walk(ctx, ledger, root.ID, startURL, map[string]string{})

	// The root itself holds no content; it is ready once the walk ends.
	if err := ledger.Store().FinishProcessing(ctx, root.ID, 0, "", nil); err != nil {
		return root, err
	}
	return ledger.Store().Get(ctx, root.ID)
}

// Refresh re-walks an existing crawl root: pages already on record are
// reprocessed in place, newly discovered pages become new children.
// Pages that vanished upstream are kept; removal stays a user action.
// Refresh implements knowledge.Refresher.
func (c *Crawler) Refresh(ctx context.Context, ledger *knowledge.Ledger, root *knowledge.Source) error {
	children, err := ledger.Store().ListChildren(ctx, root.ID)
	if err != nil {
		return err
	}
	existing := make(map[string]string, len(children))
	for _, child := range children {
		existing[child.Location] = child.ID
	}

	c.walk(ctx, ledger, root.ID, root.Location, existing)
	return ledger.Store().FinishProcessing(ctx, root.ID, 0, "", nil)
}

// walk runs the breadth-first crawl under one root. existing maps page
// locations to the children already on record; those are reprocessed
// rather than re-created. Per-page failures land in the child's error
// state; the walk itself keeps going.
func (c *Crawler) walk(ctx context.Context, ledger *knowledge.Ledger, rootID, startURL string, existing map[string]string) {
	maxPages := c.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 100
	}

	queue := []string{startURL}
	visited := map[string]bool{startURL: true}
	kept := 0
	for len(queue) > 0 && kept < maxPages {
		pageURL := queue[0]
		queue = queue[1:]

		// A failed fetch still registers the page so the failure is
		// visible and retryable from the ledger.
		_, links, err := FetchPage(ctx, c.client, pageURL)

		if c.Keep(pageURL) {
			if id, ok := existing[pageURL]; ok {
				_ = ledger.Process(ctx, id)
			} else if child, createErr := ledger.Store().Create(ctx, &knowledge.Source{
				ParentID:   &rootID,
				SourceType: knowledge.SourceURL,
				Name:       pageName(pageURL),
				Location:   pageURL,
			}); createErr == nil {
				_ = ledger.Process(ctx, child.ID)
			}
			kept++
		}
		if err != nil {
			continue
		}

		for _, link := range links {
			if !visited[link] {
				visited[link] = true
				queue = append(queue, link)
			}
		}
	}
}

func pageName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return u.Host
	}
	return path
}
