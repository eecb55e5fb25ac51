package fields_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/fields"
	"github.com/stretchr/testify/assert"
)

func TestList_JSON(t *testing.T) {
	tests := []struct {
		name string
		node domain.Node
		want []string
	}{
		{
			name: "Nested Objects In Document Order",
			node: domain.Node{Type: domain.KindJSON, Config: domain.Config{JSON: `{"z":1,"a":{"y":2,"b":{"c":3}},"list":[{"x":1}]}`}},
			want: []string{"z", "a", "a.y", "a.b", "a.b.c", "list"},
		},
		{
			name: "Builder Shares Rule",
			node: domain.Node{Type: domain.KindJSONBuilder, Config: domain.Config{JSON: `{"k":"v"}`}},
			want: []string{"k"},
		},
		{
			name: "Malformed Yields Empty",
			node: domain.Node{Type: domain.KindJSON, Config: domain.Config{JSON: `{"a":`, Outputs: []string{"ignored"}}},
			want: []string{},
		},
		{
			name: "Top Level Array Yields Empty",
			node: domain.Node{Type: domain.KindJSON, Config: domain.Config{JSON: `[{"a":1}]`}},
			want: []string{},
		},
		{
			name: "Empty Text Falls Through To Outputs",
			node: domain.Node{Type: domain.KindJSON, Config: domain.Config{Outputs: []string{"out"}}},
			want: []string{"out"},
		},
		{
			name: "Escaped Keys",
			node: domain.Node{Type: domain.KindJSON, Config: domain.Config{JSON: `{"a\"b":1}`}},
			want: []string{`a"b`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields.List(tt.node))
		})
	}
}

func TestList_CSV(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{name: "Comma", csv: "name,email\nAnn,a@b", want: []string{"rows", "rowCount", "name", "email"}},
		{name: "Semicolon Wins", csv: "a;b;c\r\n1;2;3", want: []string{"rows", "rowCount", "a", "b", "c"}},
		{name: "Tab", csv: "a\tb", want: []string{"rows", "rowCount", "a", "b"}},
		{name: "Pipe", csv: "a | b | c", want: []string{"rows", "rowCount", "a", "b", "c"}},
		{name: "Quoted Delimiter", csv: `"last, first";age;"say ""hi"""`, want: []string{"rows", "rowCount", "last, first", "age", `say "hi"`}},
		{name: "Tie Goes To Comma", csv: "a,b;c", want: []string{"rows", "rowCount", "a", "b;c"}},
		{name: "Single Column", csv: "only", want: []string{"rows", "rowCount", "only"}},
		{name: "Whitespace Only", csv: "   \n ", want: []string{"rows", "rowCount"}},
		{name: "Trailing Empty Header", csv: "a,", want: []string{"rows", "rowCount", "a", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := domain.Node{Type: domain.KindCSVInput, Config: domain.Config{CSV: tt.csv}}
			assert.Equal(t, tt.want, fields.List(n))
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', fields.DetectDelimiter("no separators"))
	assert.Equal(t, ';', fields.DetectDelimiter(`"a,b,c";d;e`))
	assert.Equal(t, '\t', fields.DetectDelimiter("a\tb\tc,d"))
}

func TestList_LeadCatalog(t *testing.T) {
	for _, kind := range []domain.NodeKind{domain.KindLeadInput, domain.KindBox1Input} {
		got := fields.List(domain.Node{Type: kind, Config: domain.Config{Outputs: []string{"x"}}})
		assert.Len(t, got, len(fields.LeadFields)+2)
		assert.Equal(t, "leads", got[0])
		assert.Equal(t, "leads[].LeadNumber", got[1])
		assert.Contains(t, got, "leads[].email")
		assert.Contains(t, got, "leads[].companyName")
		assert.Equal(t, "leadCount", got[len(got)-1])
	}
}

func TestList_Schema(t *testing.T) {
	tests := []struct {
		name   string
		schema domain.Payload
		want   []string
	}{
		{
			name:   "Properties Nested Through Object Types",
			schema: domain.TextPayload(`{"type":"object","properties":{"summary":{"type":"string"},"person":{"type":"object","properties":{"name":{"type":"string"}}},"tags":{"type":"array","properties":{"no":{}}}}}`),
			want:   []string{"summary", "person", "person.name", "tags"},
		},
		{
			name:   "Structured Schema",
			schema: domain.RawPayload(json.RawMessage(`{"properties":{"a":{"type":"string"}}}`)),
			want:   []string{"a"},
		},
		{
			name:   "Bare Object Read As Data",
			schema: domain.TextPayload(`{"title":"x","meta":{"len":1}}`),
			want:   []string{"title", "meta", "meta.len"},
		},
		{
			name:   "Empty Properties",
			schema: domain.TextPayload(`{"properties":{}}`),
			want:   []string{},
		},
		{
			name:   "Malformed Falls Through",
			schema: domain.TextPayload(`{oops`),
			want:   []string{"fallback"},
		},
		{
			name:   "Array Falls Through",
			schema: domain.TextPayload(`["a"]`),
			want:   []string{"fallback"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := domain.Node{Type: domain.KindLLM, Config: domain.Config{Schema: tt.schema, Outputs: []string{"fallback"}}}
			assert.Equal(t, tt.want, fields.List(n))
		})
	}
}

func TestList_Fallback(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, fields.List(domain.Node{Type: "API", Config: domain.Config{Outputs: []string{"a", "b"}}}))
	assert.Equal(t, []string{}, fields.List(domain.Node{Type: "API"}))
}

func TestRegistry_CustomExtractor(t *testing.T) {
	r := fields.NewRegistry()
	r.Register("WEBHOOK", func(n domain.Node) ([]string, bool) {
		return []string{"body", "headers"}, true
	})
	assert.Equal(t, []string{"body", "headers"}, r.List(domain.Node{Type: "WEBHOOK"}))
}

func TestAvailable(t *testing.T) {
	g := domain.NewGraph(
		[]domain.Node{
			{ID: "csv", Type: domain.KindCSVInput, Label: "Contacts", Config: domain.Config{CSV: "email"}},
			{ID: "llm", Type: domain.KindLLM, Label: "Writer", Config: domain.Config{Outputs: []string{"text"}}},
			{ID: "out", Type: "OUTPUT"},
		},
		[]domain.Edge{{Source: "csv", Target: "llm"}, {Source: "llm", Target: "out"}},
	)

	got := fields.Available(g, "out")
	vars := make([]domain.VariableReference, len(got))
	for i, f := range got {
		vars[i] = f.Variable
	}
	assert.Equal(t, []domain.VariableReference{"csv.rows", "csv.rowCount", "csv.email", "llm.text"}, vars)
	assert.Equal(t, "Contacts", got[0].NodeLabel)
	assert.Equal(t, "rows", got[0].Field)

	assert.Empty(t, fields.Available(g, "csv"))
}
