package rankings

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ConfigString returns the trimmed string value for key from src.Config or a fallback.
func ConfigString(src Source, key, fallback string) string {
	if src.Config != nil {
		if raw, ok := src.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
)

// Headers builds the common request headers from a source config (skips empty values).
func Headers(src Source) map[string]string {
	headers := make(map[string]string, 3)

	if v := ConfigString(src, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	if v := ConfigString(src, ConfigAcceptKey, ""); v != "" {
		headers["Accept"] = v
	}
	if v := ConfigString(src, ConfigAcceptLanguageKey, ""); v != "" {
		headers["Accept-Language"] = v
	}

	return headers
}

// ListURL expands the {country}, {category}, {collection} and {num}
// placeholders of src.ListURL. Values are query-escaped.
func ListURL(src Source, q Query) string {
	r := strings.NewReplacer(
		"{country}", url.QueryEscape(strings.ToLower(q.Country)),
		"{category}", url.QueryEscape(q.Category),
		"{collection}", url.QueryEscape(q.Collection),
		"{num}", strconv.Itoa(q.Num),
	)
	return r.Replace(src.ListURL)
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

func fetchListing(ctx context.Context, client HTTPClient, src Source, q Query) ([]byte, error) {
	target := ListURL(src, q)
	resp, err := client.Get(ctx, target, Headers(src))
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s/%s listing: %w", q.Country, q.Category, q.Collection, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s/%s/%s listing returned status %d body: %s",
			q.Country, q.Category, q.Collection, resp.StatusCode(), responseSnippet(body))
	}
	return body, nil
}

// capIDs trims blanks, drops duplicates and keeps at most limit identifiers.
func capIDs(ids []string, limit int) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
