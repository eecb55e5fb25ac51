package fields

import (
	"encoding/json"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/buger/jsonparser"
)

// FromJSON flattens the static JSON text of JSON and JSON_BUILDER nodes.
// Empty text is declined. Malformed text or a non-object document yields no fields.
func FromJSON(n domain.Node) ([]string, bool) {
	if n.JSON == "" {
		return nil, false
	}
	return flattenDocument([]byte(n.JSON)), true
}

// flattenDocument walks a JSON object depth first in document key order and
// returns every key as a dot path. Arrays are not descended.
func flattenDocument(data []byte) []string {
	if !json.Valid(data) {
		return nil
	}
	root, typ, _, err := jsonparser.Get(data)
	if err != nil || typ != jsonparser.Object {
		return nil
	}
	w := newWalker()
	w.object(root, "")
	return w.out
}

type walker struct {
	out  []string
	seen map[string]bool
}

func newWalker() *walker {
	return &walker{seen: make(map[string]bool)}
}

func (w *walker) add(path string) {
	if w.seen[path] {
		return
	}
	w.seen[path] = true
	w.out = append(w.out, path)
}

func (w *walker) object(data []byte, prefix string) {
	_ = jsonparser.ObjectEach(data, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		path := join(prefix, string(key))
		w.add(path)
		if typ == jsonparser.Object {
			w.object(value, path)
		}
		return nil
	})
}

// schema walks a JSON Schema "properties" object, descending only into
// children declared as objects with their own properties.
func (w *walker) schema(props []byte, prefix string) {
	_ = jsonparser.ObjectEach(props, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		path := join(prefix, string(key))
		w.add(path)
		if typ != jsonparser.Object {
			return nil
		}
		if kind, _ := jsonparser.GetString(value, "type"); kind != "object" {
			return nil
		}
		if sub, subType, _, err := jsonparser.Get(value, "properties"); err == nil && subType == jsonparser.Object {
			w.schema(sub, path)
		}
		return nil
	})
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	var b strings.Builder
	b.Grow(len(prefix) + 1 + len(key))
	b.WriteString(prefix)
	b.WriteByte('.')
	b.WriteString(key)
	return b.String()
}
