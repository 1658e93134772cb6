package rankings

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/rank-harvester/pkg/httpclient"
)

const (
	SourceTypeJSON = "json"
	SourceTypeHTML = "html"
)

// listerRegistry implements ListerRegistry.
type listerRegistry struct {
	mu     sync.RWMutex
	byType map[string]Lister
}

// NewListerRegistry builds a registry keyed by each lister's Type.
func NewListerRegistry(listers ...Lister) ListerRegistry {
	reg := &listerRegistry{byType: make(map[string]Lister)}
	for _, l := range listers {
		reg.register(l)
	}
	return reg
}

func (r *listerRegistry) register(l Lister) {
	if l == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(l.Type()))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.byType[key] = l
	r.mu.Unlock()
}

// ListerFor selects the lister for the given source type.
func (r *listerRegistry) ListerFor(src Source) (Lister, error) {
	if r == nil {
		return nil, fmt.Errorf("lister registry is nil")
	}
	key := strings.ToLower(strings.TrimSpace(src.Type))
	if key == "" {
		return nil, fmt.Errorf("source type is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if l, ok := r.byType[key]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("no lister registered for source type %q", src.Type)
}

// DefaultHTTPClient returns the resty-backed client used by listers.
func DefaultHTTPClient(timeout time.Duration) HTTPClient {
	return httpclient.NewRestyClient(httpclient.Options{Timeout: timeout})
}

// DefaultListerRegistry wires up the known listers on a shared client.
func DefaultListerRegistry(client HTTPClient) ListerRegistry {
	if client == nil {
		client = DefaultHTTPClient(30 * time.Second)
	}
	return NewListerRegistry(
		NewJSONLister(client),
		NewHTMLLister(client),
	)
}
