package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.GraphLoader over an exported graph file.
// ".yaml" and ".yml" files are read as YAML; anything else as the editor's
// JSON export. The file is read again on every LoadGraph.
type Loader struct {
	Path string
}

// NewLoader creates a loader for path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// LoadGraph reads and decodes the graph file.
func (l *Loader) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(l.Path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return DecodeJSON(data)
	}
}

// DecodeJSON decodes an editor export {"nodes": [...], "edges": [...]}.
func DecodeJSON(data []byte) (*domain.Graph, error) {
	var g domain.Graph
	if err := json.Unmarshal(bytes.TrimSpace(data), &g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return &g, nil
}

// yamlGraph mirrors the JSON export with the same field names.
type yamlGraph struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

// DecodeYAML decodes a hand-written graph. Field names are the JSON export's.
// A schema may be written as a string or as a mapping.
func DecodeYAML(data []byte) (*domain.Graph, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yaml graph: %w", err)
	}

	var out yamlGraph
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Squash:     true,
		DecodeHook: payloadHook,
		Result:     &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode yaml graph: %w", err)
	}
	return domain.NewGraph(out.Nodes, out.Edges), nil
}

var payloadType = reflect.TypeOf(domain.Payload{})

func payloadHook(from, to reflect.Type, data any) (any, error) {
	if to != payloadType {
		return data, nil
	}
	switch v := data.(type) {
	case nil:
		return domain.Payload{}, nil
	case string:
		return domain.TextPayload(v), nil
	default:
		return domain.StructuredPayload(v)
	}
}
