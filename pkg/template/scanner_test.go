package template_test

import (
	"testing"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/template"
	"github.com/stretchr/testify/assert"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  []domain.VariableReference
	}{
		{
			name:  "Trims And Dedupes",
			texts: []string{"Hi {{ NodeX.email }} and {{NodeX.email}} from {{csv.leads[].companyName}}"},
			want:  []domain.VariableReference{"NodeX.email", "csv.leads[].companyName"},
		},
		{
			name:  "Across Texts",
			texts: []string{"{{a.x}}", "{{b.y}} {{a.x}}"},
			want:  []domain.VariableReference{"a.x", "b.y"},
		},
		{
			name:  "No References",
			texts: []string{"plain text { not } {{}}"},
			want:  []domain.VariableReference{},
		},
		{
			name:  "Brace Inside Is Not A Reference",
			texts: []string{"{{a}b}} {{ok.f}}"},
			want:  []domain.VariableReference{"ok.f"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, template.References(tt.texts...))
		})
	}
}

func TestScan_SplitsNodeAndField(t *testing.T) {
	vars := template.Scan("{{ src.deep.path }} {{bare}}")
	if assert.Len(t, vars, 2) {
		assert.Equal(t, "src", vars[0].NodeID)
		assert.Equal(t, "deep.path", vars[0].Field)
		assert.Equal(t, "bare", vars[1].NodeID)
		assert.Empty(t, vars[1].Field)
	}
}

func TestScanNode(t *testing.T) {
	n := domain.Node{ID: "llm", Config: domain.Config{
		SystemPrompt: "You write for {{brand.name}}",
		UserPrompt:   "Email {{lead.email}} about {{brand.name}}",
	}}
	vars := template.ScanNode(n)
	assert.Len(t, vars, 2)
	assert.Equal(t, domain.VariableReference("brand.name"), vars[0].Ref)
}
