package fields

import (
	"github.com/aretw0/weft/pkg/domain"
	"github.com/buger/jsonparser"
)

// FromSchema lists the fields described by the node's output schema.
//
// A schema with a "properties" object yields its property names, nested
// through object-typed properties. A plain object without "properties" is
// read as example output and flattened like JSON data. Anything that does not
// parse to an object is declined.
func FromSchema(n domain.Node) ([]string, bool) {
	if n.Schema.IsZero() {
		return nil, false
	}
	parsed := n.Schema.Parse()
	if !parsed.OK() {
		return nil, false
	}
	root, typ, _, err := jsonparser.Get(parsed.Data)
	if err != nil || typ != jsonparser.Object {
		return nil, false
	}

	w := newWalker()
	if props, propsType, _, err := jsonparser.Get(root, "properties"); err == nil && propsType == jsonparser.Object {
		w.schema(props, "")
		return w.out, true
	}
	w.object(root, "")
	return w.out, true
}
