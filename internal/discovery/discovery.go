// Package discovery turns board index pages into listing URLs.
package discovery

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobboard-harvester/internal/crawler"
	"github.com/JakeFAU/jobboard-harvester/internal/metrics"
)

// DefaultLinkSelector matches listing anchors on the board's index layout.
const DefaultLinkSelector = "a.font-weight-bold.text-cyan-700"

// Discoverer fetches index pages and extracts the listing links they advertise.
type Discoverer struct {
	fetcher  crawler.Fetcher
	selector string
	logger   *zap.Logger
}

// New builds a Discoverer. An empty selector falls back to DefaultLinkSelector.
func New(fetcher crawler.Fetcher, selector string, logger *zap.Logger) *Discoverer {
	if selector == "" {
		selector = DefaultLinkSelector
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{
		fetcher:  fetcher,
		selector: selector,
		logger:   logger,
	}
}

// Links returns the listing URLs on indexURL in document order, duplicates
// included. A failed fetch is logged and yields no links.
func (d *Discoverer) Links(ctx context.Context, indexURL string) []string {
	resp, err := d.fetcher.Fetch(ctx, indexURL)
	if err != nil {
		d.logger.Warn("index page fetch failed", zap.String("url", indexURL), zap.Error(err))
		metrics.ObserveIndexPage(indexURL, "error", 0)
		return nil
	}
	links, err := ParseLinks(resp.Body, indexURL, d.selector)
	if err != nil {
		d.logger.Warn("index page parse failed", zap.String("url", indexURL), zap.Error(err))
		return nil
	}
	d.logger.Debug("index page discovered", zap.String("url", indexURL), zap.Int("links", len(links)))
	metrics.ObserveIndexPage(indexURL, "success", len(links))
	return links
}

// ParseLinks selects listing anchors from body. Relative hrefs resolve against
// base; anchors without an href are skipped.
func ParseLinks(body []byte, base, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse index html: %w", err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}
	links := make([]string, 0)
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			links = append(links, href)
			return
		}
		links = append(links, baseURL.ResolveReference(ref).String())
	})
	return links, nil
}

// IndexURL sets the page number as query parameter param on base.
func IndexURL(base, param string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
