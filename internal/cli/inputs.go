package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
)

// ParseInputs reads manual inputs given as "node.field=value" pairs.
// The value may be empty and may itself contain "=".
func ParseInputs(pairs []string) (map[domain.VariableReference]string, error) {
	out := make(map[domain.VariableReference]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q: want node.field=value", p)
		}
		ref := domain.VariableReference(key)
		if ref.Field() == "" {
			return nil, fmt.Errorf("invalid input %q: %q has no field", p, key)
		}
		out[ref] = value
	}
	return out, nil
}

// MissingInputs returns the required references absent from inputs, sorted.
func MissingInputs(required []domain.RequiredInput, inputs map[domain.VariableReference]string) []domain.RequiredInput {
	var out []domain.RequiredInput
	for _, r := range required {
		if _, ok := inputs[r.Variable]; !ok {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.RequiredInput) int {
		return strings.Compare(string(a.Variable), string(b.Variable))
	})
	return out
}
