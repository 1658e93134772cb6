package rankings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// jsonLister reads listings served as JSON.
type jsonLister struct {
	client HTTPClient
}

// NewJSONLister builds a lister for JSON listing endpoints.
func NewJSONLister(client HTTPClient) Lister {
	if client == nil {
		client = DefaultHTTPClient(0)
	}
	return &jsonLister{client: client}
}

func (l *jsonLister) Type() string { return SourceTypeJSON }

func (l *jsonLister) List(ctx context.Context, src Source, q Query) ([]string, error) {
	raw, err := fetchListing(ctx, l.client, src, q)
	if err != nil {
		return nil, err
	}
	ids, err := parseJSONListing(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s/%s/%s listing: %w", q.Country, q.Category, q.Collection, err)
	}
	return capIDs(ids, q.Num), nil
}

type listingEntry struct {
	AppID string `json:"appId"`
	ID    string `json:"id"`
}

// parseJSONListing accepts an array of identifiers, an array of objects with
// appId (or id), or either of those wrapped as {"results": [...]}.
func parseJSONListing(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty body")
	}

	if data[0] == '{' {
		var wrapper struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, err
		}
		if len(wrapper.Results) == 0 {
			return nil, errors.New("object listing has no results field")
		}
		data = wrapper.Results
	}

	var plain []string
	if err := json.Unmarshal(data, &plain); err == nil {
		return plain, nil
	}

	var entries []listingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.AppID != "" {
			ids = append(ids, e.AppID)
		} else {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}
