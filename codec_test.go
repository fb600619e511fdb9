// FILE: lixenwraith/nestconf/codec_test.go
package nestconf

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeSingleDocument tests decoding a plain YAML mapping
func TestDecodeSingleDocument(t *testing.T) {
	codec := &Codec{}
	cfg, err := codec.Decode(strings.NewReader(`
server:
  host: localhost
  port: 8080
debug: true
`))
	require.NoError(t, err)

	sv, ok := cfg.Get("server")
	require.True(t, ok)
	hv, ok := sv.(*Store).Get("host")
	require.True(t, ok)
	assert.Equal(t, "localhost", hv)

	dv, ok := cfg.Get("debug")
	require.True(t, ok)
	assert.Equal(t, true, dv)
}

// TestDecodeMultiDocument tests side-document delivery and config selection
func TestDecodeMultiDocument(t *testing.T) {
	stream := `---
meta: first
---
meta: second
---
key: value
`

	t.Run("LastDocumentIsConfig", func(t *testing.T) {
		var got []any
		codec := &Codec{
			OnLoadSideDocuments: func(side []any) { got = append(got, side...) },
		}
		cfg, err := codec.Decode(strings.NewReader(stream))
		require.NoError(t, err)

		v, ok := cfg.Get("key")
		require.True(t, ok)
		assert.Equal(t, "value", v)

		require.Len(t, got, 2)
		m1, _ := got[0].(*Store).Get("meta")
		m2, _ := got[1].(*Store).Get("meta")
		assert.Equal(t, "first", m1)
		assert.Equal(t, "second", m2)
	})

	t.Run("CustomSelector", func(t *testing.T) {
		codec := &Codec{
			SelectDocument: func(docs []any) (int, error) { return 0, nil },
		}
		cfg, side, err := codec.DecodeParts(strings.NewReader(stream))
		require.NoError(t, err)

		v, ok := cfg.Get("meta")
		require.True(t, ok)
		assert.Equal(t, "first", v)
		assert.Len(t, side, 2)
	})

	t.Run("SelectorErrorIsFatal", func(t *testing.T) {
		codec := &Codec{
			SelectDocument: func(docs []any) (int, error) {
				return 0, errors.New("no config here")
			},
		}
		_, err := codec.Decode(strings.NewReader(stream))
		assert.Error(t, err)
	})

	t.Run("SelectorOutOfRangeIsFatal", func(t *testing.T) {
		codec := &Codec{
			SelectDocument: func(docs []any) (int, error) { return 7, nil },
		}
		_, err := codec.Decode(strings.NewReader(stream))
		assert.Error(t, err)
	})
}

// TestDecodeErrors tests the error policy per document role
func TestDecodeErrors(t *testing.T) {
	t.Run("EmptyStream", func(t *testing.T) {
		codec := &Codec{}
		_, err := codec.Decode(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyDocumentStream)
	})

	t.Run("CommentsOnlyStream", func(t *testing.T) {
		codec := &Codec{}
		_, err := codec.Decode(strings.NewReader("# just a comment\n\n"))
		assert.ErrorIs(t, err, ErrEmptyDocumentStream)
	})

	t.Run("BrokenSideDocumentIsReportedNotFatal", func(t *testing.T) {
		stream := "---\n\t{broken\n---\nkey: value\n"
		var side []any
		codec := &Codec{
			OnLoadSideDocuments: func(s []any) { side = s },
		}
		cfg, err := codec.Decode(strings.NewReader(stream))
		require.NotNil(t, cfg)
		assert.ErrorIs(t, err, ErrDecode)

		v, ok := cfg.Get("key")
		require.True(t, ok)
		assert.Equal(t, "value", v)
		assert.Empty(t, side, "the broken document is not delivered")
	})

	t.Run("BrokenConfigDocumentIsFatal", func(t *testing.T) {
		stream := "---\nmeta: ok\n---\n\t{broken\n"
		codec := &Codec{}
		cfg, err := codec.Decode(strings.NewReader(stream))
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("NonMappingConfigIsFatal", func(t *testing.T) {
		codec := &Codec{}
		_, err := codec.Decode(strings.NewReader("- 1\n- 2\n"))
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("EmptyConfigDocumentYieldsEmptyStore", func(t *testing.T) {
		codec := &Codec{}
		cfg, err := codec.Decode(strings.NewReader("---\nmeta: 1\n---\n# empty\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Len())
	})
}

// TestEncodeRoundTrip tests that decode(encode(cfg)) preserves structure and
// key order
func TestEncodeRoundTrip(t *testing.T) {
	cfg := StoreFromPairs([]Pair{
		{Key: "zeta", Value: 1},
		{Key: "alpha", Value: map[string]any{"nested": "v", "list": []any{1, 2}}},
		{Key: "mid", Value: 3.5},
	})

	codec := &Codec{}
	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, cfg))

	decoded, err := codec.Decode(&buf)
	require.NoError(t, err)
	assert.True(t, cfg.Equal(decoded))

	var keys []string
	for k := range decoded.Keys() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
}

// TestEncodeSideDocuments tests the save-side hook
func TestEncodeSideDocuments(t *testing.T) {
	cfg := StoreFromPairs([]Pair{{Key: "key", Value: "value"}})
	codec := &Codec{
		OnSaveSideDocuments: func() []any {
			return []any{map[string]any{"meta": "doc"}}
		},
	}

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, cfg))

	// Reload and confirm both documents come back in role order.
	var side []any
	reload := &Codec{OnLoadSideDocuments: func(s []any) { side = s }}
	decoded, err := reload.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	v, ok := decoded.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	require.Len(t, side, 1)
	mv, ok := side[0].(*Store).Get("meta")
	require.True(t, ok)
	assert.Equal(t, "doc", mv)
}

// TestSplitDocuments tests marker handling in the stream splitter
func TestSplitDocuments(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		chunks int
	}{
		{"Empty", "", 0},
		{"Single", "a: 1\n", 1},
		{"LeadingMarker", "---\na: 1\n", 1},
		{"TwoDocs", "a: 1\n---\nb: 2\n", 2},
		{"EndMarker", "a: 1\n...\n", 1},
		{"EndThenStart", "a: 1\n...\n---\nb: 2\n", 2},
		{"CommentPrelude", "# header\n---\na: 1\n", 1},
		{"ExplicitEmptyDoc", "---\n---\na: 1\n", 2},
		{"InlineContent", "--- {a: 1}\n", 1},
		{"NoTrailingNewline", "a: 1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, splitDocuments([]byte(tt.input)), tt.chunks)
		})
	}
}

// TestDecodeScalarHandling tests scalar typing and non-string keys
func TestDecodeScalarHandling(t *testing.T) {
	codec := &Codec{}
	cfg, err := codec.Decode(strings.NewReader(`
count: 42
ratio: 0.5
flag: false
name: text
empty: null
8080: numeric-key
`))
	require.NoError(t, err)

	v, _ := cfg.Get("count")
	assert.Equal(t, 42, v)
	v, _ = cfg.Get("ratio")
	assert.Equal(t, 0.5, v)
	v, _ = cfg.Get("flag")
	assert.Equal(t, false, v)
	v, _ = cfg.Get("name")
	assert.Equal(t, "text", v)

	v, ok := cfg.Get("empty")
	require.True(t, ok)
	assert.Nil(t, v)

	// Non-string keys are rendered through their string form.
	v, ok = cfg.Get("8080")
	require.True(t, ok)
	assert.Equal(t, "numeric-key", v)
}

// TestAnchorsAndAliases tests alias resolution during decode
func TestAnchorsAndAliases(t *testing.T) {
	codec := &Codec{}
	cfg, err := codec.Decode(strings.NewReader(`
base: &b
  host: localhost
copy: *b
`))
	require.NoError(t, err)

	cv, ok := cfg.Get("copy")
	require.True(t, ok)
	hv, ok := cv.(*Store).Get("host")
	require.True(t, ok)
	assert.Equal(t, "localhost", hv)
}
