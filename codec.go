// FILE: lixenwraith/nestconf/codec.go
package nestconf

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec reads and writes a logical configuration as a sequence of YAML
// documents, where exactly one document is the configuration and the others
// are side documents passed through the hooks below. All behavior is
// configured through explicit fields at construction; there is no
// process-wide default codec state.
type Codec struct {
	// SelectDocument identifies which decoded document is the configuration
	// document. When nil, the last document is selected. A selector error or
	// out-of-range index is fatal for the whole load.
	SelectDocument func(docs []any) (int, error)

	// OnLoadSideDocuments receives every successfully decoded side document,
	// in document order, once per load. The callback may inspect the
	// documents but has no handle on the configuration document.
	OnLoadSideDocuments func(side []any)

	// OnSaveSideDocuments produces the side documents emitted before the
	// configuration document on save. Returning nothing is valid and is the
	// default.
	OnSaveSideDocuments func() []any
}

// Decode reads a multi-document stream, invokes OnLoadSideDocuments with the
// side documents, and returns the configuration document as a Store. Side
// documents that fail to parse are reported through the returned error
// without aborting the load; the returned Store is valid whenever the error
// wraps only side-document failures.
func (c *Codec) Decode(r io.Reader) (*Store, error) {
	cfg, side, err := c.DecodeParts(r)
	if cfg == nil {
		return nil, err
	}
	if c.OnLoadSideDocuments != nil {
		c.OnLoadSideDocuments(side)
	}
	return cfg, err
}

// DecodeParts is Decode without hook invocation: it returns the
// configuration Store and the decoded side documents, leaving delivery to
// the caller. Multi-source loaders use it to hand all side documents from
// every source to the hook in a single call.
func (c *Codec) DecodeParts(r io.Reader) (*Store, []any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read document stream: %w", err)
	}

	chunks := splitDocuments(data)
	if len(chunks) == 0 {
		return nil, nil, ErrEmptyDocumentStream
	}

	docs := make([]any, len(chunks))
	docErrs := make([]error, len(chunks))
	for i, chunk := range chunks {
		docs[i], docErrs[i] = decodeDocument(chunk)
	}

	// Default policy: the last document is the configuration document.
	idx := len(docs) - 1
	if c.SelectDocument != nil {
		idx, err = c.SelectDocument(docs)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot identify configuration document: %w", err)
		}
		if idx < 0 || idx >= len(docs) {
			return nil, nil, fmt.Errorf("cannot identify configuration document: selector returned index %d of %d documents", idx, len(docs))
		}
	}

	if docErrs[idx] != nil {
		return nil, nil, fmt.Errorf("configuration document %d: %w", idx, docErrs[idx])
	}

	var cfg *Store
	switch v := docs[idx].(type) {
	case nil:
		cfg = NewStore()
	case *Store:
		cfg = v
	default:
		return nil, nil, fmt.Errorf("configuration document %d: %w: not a mapping (got %T)", idx, ErrDecode, v)
	}

	var side []any
	var sideErrs []error
	for i, d := range docs {
		if i == idx {
			continue
		}
		if docErrs[i] != nil {
			sideErrs = append(sideErrs, fmt.Errorf("%w %d: %w", errSideDocument, i, docErrs[i]))
			continue
		}
		side = append(side, d)
	}

	return cfg, side, errors.Join(sideErrs...)
}

// Encode writes the side documents produced by OnSaveSideDocuments followed
// by the configuration document. Key insertion order is preserved.
func (c *Codec) Encode(w io.Writer, cfg *Store) error {
	var side []any
	if c.OnSaveSideDocuments != nil {
		side = c.OnSaveSideDocuments()
	}
	return c.EncodeParts(w, cfg, side)
}

// EncodeParts writes the given side documents followed by the configuration
// document, separated by explicit document markers.
func (c *Codec) EncodeParts(w io.Writer, cfg *Store, side []any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	for i, doc := range side {
		if err := enc.Encode(encodableDocument(doc)); err != nil {
			return fmt.Errorf("side document %d: %w", i, err)
		}
	}

	if cfg == nil {
		cfg = NewStore()
	}
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("configuration document: %w", err)
	}

	return enc.Close()
}

// encodableDocument normalizes a side document for encoding. Plain maps go
// through a Store so key output is deterministic.
func encodableDocument(doc any) any {
	switch v := doc.(type) {
	case map[string]any, map[any]any:
		return castStore(v)
	default:
		return doc
	}
}

// decodeDocument parses one raw document into a decoded value: *Store for
// mappings, []any for sequences, scalars otherwise, nil for an empty
// document.
func decodeDocument(chunk []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(chunk, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return yamlValue(&node)
}

// yamlValue converts a parsed node tree into stored values, preserving
// mapping key order.
func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		s := NewStore()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := yamlKey(n.Content[i])
			if err != nil {
				return nil, err
			}
			val, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			s.om.Set(key, val)
		}
		return s, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, el := range n.Content {
			v, err := yamlValue(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unsupported node kind %d", ErrDecode, n.Kind)
	}
}

// yamlKey decodes a mapping key node into a string. Non-string scalar keys
// are rendered through their string form.
func yamlKey(n *yaml.Node) (string, error) {
	if n.Kind == yaml.AliasNode {
		return yamlKey(n.Alias)
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%w: mapping key is not a scalar", ErrDecode)
	}
	var s string
	if err := n.Decode(&s); err == nil {
		return s, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return fmt.Sprintf("%v", v), nil
}

// MarshalYAML encodes the Store as an ordered mapping node, so insertion
// order of keys survives a save/load round-trip.
func (s *Store) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for p := s.om.Oldest(); p != nil; p = p.Next() {
		keyNode := &yaml.Node{}
		keyNode.SetString(p.Key)

		valNode := &yaml.Node{}
		val, _ := s.Get(p.Key)
		if err := valNode.Encode(val); err != nil {
			return nil, fmt.Errorf("cannot encode value for key %q: %w", p.Key, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping node into the Store, replacing its
// contents.
func (s *Store) UnmarshalYAML(node *yaml.Node) error {
	v, err := yamlValue(node)
	if err != nil {
		return err
	}
	st, ok := v.(*Store)
	if !ok {
		if v == nil {
			s.om = NewStore().om
			return nil
		}
		return fmt.Errorf("%w: cannot decode %T into a store", ErrDecode, v)
	}
	s.om = st.om
	return nil
}

// splitDocuments splits a raw stream into per-document chunks at explicit
// document markers. Content before the first marker forms its own document
// when it holds anything besides blank lines and comments. The split is
// line-based; a marker line inside a block scalar is not distinguished.
func splitDocuments(data []byte) [][]byte {
	var chunks [][]byte
	var cur []byte
	open := false

	flush := func() {
		if open || chunkHasContent(cur) {
			chunks = append(chunks, cur)
		}
		cur = nil
	}

	rest := string(data)
	for rest != "" {
		var line string
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i]
			rest = rest[i+1:]
		} else {
			line = rest
			rest = ""
		}

		trimmed := strings.TrimRight(line, "\r")
		switch {
		case isDocumentStart(trimmed):
			flush()
			open = true
			if tail := strings.TrimSpace(trimmed[3:]); tail != "" {
				cur = append(cur, tail...)
				cur = append(cur, '\n')
			}
		case trimmed == "..." || strings.HasPrefix(trimmed, "... "):
			flush()
			open = false
		default:
			cur = append(cur, line...)
			cur = append(cur, '\n')
		}
	}

	flush()
	return chunks
}

func isDocumentStart(line string) bool {
	return line == "---" ||
		strings.HasPrefix(line, "--- ") ||
		strings.HasPrefix(line, "---\t")
}

// chunkHasContent reports whether a chunk holds anything besides blank and
// comment lines.
func chunkHasContent(chunk []byte) bool {
	for _, line := range strings.Split(string(chunk), "\n") {
		t := strings.TrimSpace(line)
		if t != "" && !strings.HasPrefix(t, "#") {
			return true
		}
	}
	return false
}
