package rankings

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxHTMLBodyBytes = 4 << 20

// htmlLister scrapes identifiers out of a store listing page.
type htmlLister struct {
	client HTTPClient
}

// NewHTMLLister builds a lister for HTML listing pages.
func NewHTMLLister(client HTTPClient) Lister {
	if client == nil {
		client = DefaultHTTPClient(0)
	}
	return &htmlLister{client: client}
}

func (l *htmlLister) Type() string { return SourceTypeHTML }

func (l *htmlLister) List(ctx context.Context, src Source, q Query) ([]string, error) {
	raw, err := fetchListing(ctx, l.client, src, q)
	if err != nil {
		return nil, err
	}
	if len(raw) > maxHTMLBodyBytes {
		raw = raw[:maxHTMLBodyBytes]
	}
	ids, err := parseHTMLListing(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s/%s/%s listing: %w", q.Country, q.Category, q.Collection, err)
	}
	return capIDs(ids, q.Num), nil
}

// parseHTMLListing collects the id query parameter of every details link in
// document order.
func parseHTMLListing(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var ids []string
	doc.Find(`a[href*="details?id="]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if id := detailsID(href); id != "" {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

func detailsID(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("id"))
}
