package asdf

import (
	"bytes"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-asdf/internal/ndarray"
)

const (
	ndarrayTag = "!core/ndarray-1.0.0"
	complexTag = "!core/complex-1.0.0"
	rootTag    = "!core/asdf-1.1.0"

	// tagPrefix is what the "!" handle expands to.
	tagPrefix = "tag:stsci.edu:asdf/"

	fileHeader = "#ASDF 1.0.0\n#ASDF_STANDARD 1.5.0\n%YAML 1.1\n%TAG ! " + tagPrefix + "\n--- " + rootTag + "\n"
	treeEnd    = "..."
)

func shortTag(tag string) string {
	if rest, ok := strings.CutPrefix(tag, tagPrefix); ok {
		return "!" + rest
	}
	return tag
}

// decodeTree parses the YAML text of a file into its tree.
func (f *File) decodeTree(text []byte) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing tree")
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return map[string]any{}, nil
	}
	v, err := f.decodeNode(&doc, "")
	if err != nil {
		return nil, err
	}
	switch root := v.(type) {
	case map[string]any:
		return root, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, errors.Wrapf(ErrNotASDF, "tree root is %T, not a mapping", v)
	}
}

func (f *File) decodeNode(n *yaml.Node, path string) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return f.decodeNode(n.Content[0], path)

	case yaml.AliasNode:
		return f.decodeNode(n.Alias, path)

	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			v, err := f.decodeNode(n.Content[i+1], path+"/"+key)
			if err != nil {
				return nil, err
			}
			m[key] = v
		}
		if shortTag(n.Tag) == ndarrayTag {
			return f.decodeArray(m, path)
		}
		return m, nil

	case yaml.SequenceNode:
		l := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := f.decodeNode(c, path)
			if err != nil {
				return nil, err
			}
			l[i] = v
		}
		if shortTag(n.Tag) == ndarrayTag {
			return f.decodeArray(l, path)
		}
		return l, nil

	case yaml.ScalarNode:
		if shortTag(n.Tag) == complexTag {
			c, err := parseComplex(n.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "%s", path)
			}
			return c, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		return v, nil
	}
	return nil, errors.Newf("%s: unexpected YAML node kind %d", path, n.Kind)
}

func (f *File) decodeArray(node any, path string) (*NDArray, error) {
	v, err := FromTree(node, f)
	if err != nil {
		return nil, errors.Wrapf(err, "ndarray at %s", orRoot(path))
	}
	return v, nil
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// encodeTree renders a tree as a YAML document, converting arrays with s.
func (s *serializer) encodeTree(tree map[string]any) ([]byte, error) {
	root, err := s.encodeNode(tree)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, errors.Wrap(err, "encoding tree")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "encoding tree")
	}
	buf.WriteString(treeEnd + "\n")
	return buf.Bytes(), nil
}

func (s *serializer) encodeNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil

	case *NDArray, *ndarray.Array:
		m, err := s.toTree(x, nil)
		if err != nil {
			return nil, err
		}
		return s.encodeArray(m)

	case map[string]any:
		return s.encodeMapping(x, slices.Sorted(maps.Keys(x)), "")

	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, e := range x {
			c, err := s.encodeNode(e)
			if err != nil {
				return nil, err
			}
			if c.Kind != yaml.ScalarNode && c.Style&yaml.FlowStyle == 0 {
				seq.Style = 0
			}
			seq.Content = append(seq.Content, c)
		}
		return seq, nil

	case complex128:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: complexTag, Value: formatComplex(x)}, nil

	case complex64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: complexTag, Value: formatComplex(complex128(x))}, nil

	case float32:
		return floatNode(float64(x))

	case float64:
		return floatNode(x)
	}

	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, errors.Wrapf(err, "encoding %T", v)
	}
	return n, nil
}

// floatNode encodes f so that it reads back as a float, even when it is
// integral.
func floatNode(f float64) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(f); err != nil {
		return nil, err
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.ContainsAny(n.Value, ".eE") {
		n.Value += ".0"
	}
	return n, nil
}

// arrayKeys is the order in which ndarray node keys are written.
var arrayKeys = []string{"source", "data", "mask", "datatype", "byteorder", "shape", "offset", "strides"}

func (s *serializer) encodeArray(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for _, k := range arrayKeys {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}
	return s.encodeMapping(m, keys, ndarrayTag)
}

func (s *serializer) encodeMapping(m map[string]any, keys []string, tag string) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: tag}
	for _, k := range keys {
		var (
			c   *yaml.Node
			err error
		)
		if sub, ok := m[k].(map[string]any); ok && tag == ndarrayTag && k == "mask" {
			c, err = s.encodeArray(sub)
		} else {
			c, err = s.encodeNode(m[k])
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%q", k)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, c)
	}
	return n, nil
}
