// Package defaults provides the YAML-backed default-value provider for the
// settings namespace.
package defaults

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

//go:embed defaults.yaml
var embeddedYAML []byte

var _ types.DefaultProvider = (*Provider)(nil)

// Provider resolves symbolic setting names to default values. It is
// immutable after Load.
type Provider struct {
	values types.Entries
}

// Embedded returns the provider built from the defaults compiled into the
// binary.
func Embedded() *Provider {
	p, err := Load(bytes.NewReader(embeddedYAML))
	if err != nil {
		panic(fmt.Sprintf("defaults: embedded defaults.yaml: %v", err))
	}
	return p
}

// LoadFile reads a provider from a YAML file.
func LoadFile(path string) (*Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML mapping of name to default value.
func Load(r io.Reader) (*Provider, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return &Provider{values: types.Entries{}}, nil
		}
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	if len(doc.Content) == 0 {
		return &Provider{values: types.Entries{}}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("defaults: top level must be a mapping, got %s", nodeKind(root))
	}

	values := make(types.Entries, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		v, err := decodeValue(root.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("defaults: %s (line %d): %w", name, root.Content[i].Line, err)
		}
		values[name] = v
	}
	return &Provider{values: values}, nil
}

// Lookup returns the default for name.
func (p *Provider) Lookup(name string) (types.Value, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Entries returns a copy of every default.
func (p *Provider) Entries() types.Entries {
	return p.values.Clone()
}

func decodeValue(n *yaml.Node) (types.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return decodeScalar(n)
	case yaml.SequenceNode:
		return decodeSet(n)
	case yaml.MappingNode:
		var explicit struct {
			Kind  string    `yaml:"kind"`
			Value yaml.Node `yaml:"value"`
		}
		if err := n.Decode(&explicit); err != nil {
			return types.Value{}, err
		}
		kind, err := types.ParseKind(explicit.Kind)
		if err != nil {
			return types.Value{}, err
		}
		if kind == types.KindStringSet {
			return decodeSet(&explicit.Value)
		}
		return types.ParseValue(kind, explicit.Value.Value)
	}
	return types.Value{}, fmt.Errorf("unsupported node %s", nodeKind(n))
}

func decodeScalar(n *yaml.Node) (types.Value, error) {
	switch n.ShortTag() {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return types.Value{}, err
		}
		return types.Bool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return types.Value{}, err
		}
		if i == int64(int32(i)) {
			return types.Int(int32(i)), nil
		}
		return types.Long(i), nil
	case "!!float":
		return types.ParseValue(types.KindFloat, n.Value)
	case "!!str":
		return types.String(n.Value), nil
	}
	return types.Value{}, fmt.Errorf("unsupported scalar tag %s", n.ShortTag())
}

func decodeSet(n *yaml.Node) (types.Value, error) {
	if n.Kind != yaml.SequenceNode {
		return types.Value{}, fmt.Errorf("string set must be a sequence, got %s", nodeKind(n))
	}
	var members []string
	if err := n.Decode(&members); err != nil {
		return types.Value{}, err
	}
	return types.StringSet(members...), nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
