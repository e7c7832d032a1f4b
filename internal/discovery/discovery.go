// Package discovery probes a connected site for available content-type
// endpoints and classifies them as community-like or home-like. The
// classification is a best-effort suggestion; the user can always
// override it with a manual endpoint entry.
package discovery

import (
	"context"
	"sort"
	"strings"

	"github.com/ziadkadry99/parksync/internal/wp"
)

// Classification buckets a discovered endpoint.
type Classification string

const (
	ClassCommunity Classification = "community"
	ClassHome      Classification = "home"
	ClassUnknown   Classification = "unknown"
)

// Endpoint is one discovered content-type endpoint. Ephemeral: produced
// by discovery, never persisted.
type Endpoint struct {
	Slug           string         `json:"slug"`
	DisplayName    string         `json:"display_name"`
	RestBase       string         `json:"rest_base"`
	Classification Classification `json:"classification"`
}

// Result groups discovered endpoints by classification. A failed probe
// yields empty suggestion lists and a warning, never an error: discovery
// must not block manual endpoint entry.
type Result struct {
	CommunityEndpoints []Endpoint `json:"community_endpoints"`
	HomeEndpoints      []Endpoint `json:"home_endpoints"`
	Other              []Endpoint `json:"other,omitempty"`
	Warning            string     `json:"warning,omitempty"`
}

// communityKeywords and homeKeywords are matched as substrings against an
// endpoint's slug, name, and rest_base.
var (
	communityKeywords = []string{"community", "communities", "neighborhood", "neighbourhood", "park", "subdivision", "development"}
	homeKeywords      = []string{"home", "property", "properties", "listing", "unit", "house", "residence", "inventory"}
)

// typeLister is the slice of the wp client needed here; swappable in tests.
type typeLister interface {
	ContentTypes(ctx context.Context) ([]wp.ContentType, error)
}

// Discover fetches and classifies the site's content-type endpoints.
func Discover(ctx context.Context, siteURL string) *Result {
	return discover(ctx, wp.NewClient(siteURL))
}

func discover(ctx context.Context, client typeLister) *Result {
	result := &Result{
		CommunityEndpoints: []Endpoint{},
		HomeEndpoints:      []Endpoint{},
	}

	types, err := client.ContentTypes(ctx)
	if err != nil {
		result.Warning = "endpoint discovery failed: " + err.Error() + "; enter the endpoint manually"
		return result
	}

	for _, ct := range types {
		ep := Endpoint{
			Slug:           ct.Slug,
			DisplayName:    ct.Name,
			RestBase:       ct.RestBase,
			Classification: Classify(ct),
		}
		if ep.RestBase == "" {
			ep.RestBase = ep.Slug
		}
		switch ep.Classification {
		case ClassCommunity:
			result.CommunityEndpoints = append(result.CommunityEndpoints, ep)
		case ClassHome:
			result.HomeEndpoints = append(result.HomeEndpoints, ep)
		default:
			result.Other = append(result.Other, ep)
		}
	}

	sortEndpoints(result.CommunityEndpoints)
	sortEndpoints(result.HomeEndpoints)
	sortEndpoints(result.Other)
	return result
}

// Classify matches a content type's identifiers against the community and
// home keyword sets. Community wins ties: "community homes" is a
// community section, not an inventory feed.
func Classify(ct wp.ContentType) Classification {
	haystack := strings.ToLower(ct.Slug + " " + ct.Name + " " + ct.RestBase)

	for _, kw := range communityKeywords {
		if strings.Contains(haystack, kw) {
			return ClassCommunity
		}
	}
	for _, kw := range homeKeywords {
		if strings.Contains(haystack, kw) {
			return ClassHome
		}
	}
	return ClassUnknown
}

func sortEndpoints(eps []Endpoint) {
	sort.Slice(eps, func(i, j int) bool { return eps[i].Slug < eps[j].Slug })
}
