package fields

import (
	"sync"

	"github.com/aretw0/weft/pkg/domain"
)

// Extractor lists the fields of a node. It returns false when the node does
// not carry the data it needs, passing control to the next rule.
type Extractor func(n domain.Node) ([]string, bool)

// Registry maps node kinds to extractors.
type Registry struct {
	mu    sync.RWMutex
	kinds map[domain.NodeKind]Extractor
}

// NewRegistry creates a registry with the built-in extractors.
func NewRegistry() *Registry {
	r := &Registry{kinds: make(map[domain.NodeKind]Extractor)}
	r.Register(domain.KindJSON, FromJSON)
	r.Register(domain.KindJSONBuilder, FromJSON)
	r.Register(domain.KindCSVInput, FromCSV)
	r.Register(domain.KindLeadInput, FromLeadCatalog)
	r.Register(domain.KindBox1Input, FromLeadCatalog)
	return r
}

// Register adds or replaces the extractor for kind.
func (r *Registry) Register(kind domain.NodeKind, fn Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = fn
}

// List returns the ordered field names of n. The result is never nil.
func (r *Registry) List(n domain.Node) []string {
	r.mu.RLock()
	fn, ok := r.kinds[n.Type]
	r.mu.RUnlock()

	if ok {
		if out, handled := fn(n); handled {
			return nonNil(out)
		}
	}
	if out, handled := FromSchema(n); handled {
		return nonNil(out)
	}
	return nonNil(append([]string(nil), n.Outputs...))
}

var defaultRegistry = NewRegistry()

// List returns the fields of n using the built-in extractors.
func List(n domain.Node) []string {
	return defaultRegistry.List(n)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
