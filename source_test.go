// FILE: lixenwraith/nestconf/source_test.go
package nestconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadSources tests ascending-precedence layering
func TestLoadSources(t *testing.T) {
	t.Run("LaterSourceWins", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadSources(
			Source{Name: "base.yaml", Data: []byte("a: 1\nb: 1\n")},
			Source{Name: "override.yaml", Data: []byte("b: 2\nc: 3\n")},
		)
		require.NoError(t, err)

		assert.True(t, store.Equal(StoreFromMap(map[string]any{
			"a": 1, "b": 2, "c": 3,
		})))
	})

	t.Run("DeepLayering", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadSources(
			Source{Name: "base.yaml", Data: []byte("server:\n  host: localhost\n  port: 8080\n")},
			Source{Name: "prod.yaml", Data: []byte("server:\n  port: 443\n")},
		)
		require.NoError(t, err)

		assert.True(t, store.Equal(StoreFromMap(map[string]any{
			"server": map[string]any{"host": "localhost", "port": 443},
		})))
	})

	t.Run("EmptySourceIsNonFatal", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadSources(
			Source{Name: "empty.yaml", Data: nil},
			Source{Name: "real.yaml", Data: []byte("a: 1\n")},
		)
		require.NotNil(t, store)
		assert.ErrorIs(t, err, ErrEmptyDocumentStream)
		assert.True(t, store.Has("a"))
	})

	t.Run("BrokenConfigDocumentIsFatal", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadSources(
			Source{Name: "bad.yaml", Data: []byte("\t{broken\n")},
		)
		assert.Nil(t, store)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("SideDocumentsGatheredAcrossSources", func(t *testing.T) {
		var side []any
		calls := 0
		loader := NewLoader()
		loader.Codec.OnLoadSideDocuments = func(s []any) {
			calls++
			side = s
		}

		_, err := loader.LoadSources(
			Source{Name: "one.yaml", Data: []byte("---\nmeta: 1\n---\na: 1\n")},
			Source{Name: "two.yaml", Data: []byte("---\nmeta: 2\n---\nb: 2\n")},
		)
		require.NoError(t, err)

		assert.Equal(t, 1, calls, "the hook fires once per load, not per source")
		require.Len(t, side, 2)
		m1, _ := side[0].(*Store).Get("meta")
		m2, _ := side[1].(*Store).Get("meta")
		assert.Equal(t, 1, m1)
		assert.Equal(t, 2, m2)
	})
}

// TestSourceFormats tests per-format decoding and format detection
func TestSourceFormats(t *testing.T) {
	t.Run("TOML", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadSources(Source{
			Name: "config.toml",
			Data: []byte("title = \"app\"\n[server]\nport = 8080\n"),
		})
		require.NoError(t, err)

		v, ok := store.Get("title")
		require.True(t, ok)
		assert.Equal(t, "app", v)

		sv, ok := store.Get("server")
		require.True(t, ok)
		pv, ok := sv.(*Store).Get("port")
		require.True(t, ok)
		assert.EqualValues(t, 8080, pv)
	})

	t.Run("JSON", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadSources(Source{
			Name: "config.json",
			Data: []byte(`{"name": "app", "nested": {"n": 5}}`),
		})
		require.NoError(t, err)

		v, ok := store.Get("name")
		require.True(t, ok)
		assert.Equal(t, "app", v)

		nv, ok := store.Get("nested")
		require.True(t, ok)
		assert.True(t, nv.(*Store).Has("n"))
	})

	t.Run("ExplicitFormatOverridesName", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadSources(Source{
			Name:   "config.txt",
			Data:   []byte("a: 1\n"),
			Format: "yaml",
		})
		require.NoError(t, err)
		assert.True(t, store.Has("a"))
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		loader := NewLoader()
		_, err := loader.LoadSources(Source{
			Name:   "x",
			Data:   []byte("a: 1\n"),
			Format: "xml",
		})
		assert.Error(t, err)
	})

	t.Run("ContentDetection", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadSources(Source{
			Name: "no-extension",
			Data: []byte(`{"j": true}`),
		})
		require.NoError(t, err)
		assert.True(t, store.Has("j"))
	})
}

// TestDetectFileFormat tests extension mapping
func TestDetectFileFormat(t *testing.T) {
	tests := []struct {
		path   string
		format string
	}{
		{"config.yaml", "yaml"},
		{"config.yml", "yaml"},
		{"config.TOML", "toml"},
		{"config.json", "json"},
		{"config.ini", ""},
		{"config", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.format, detectFileFormat(tt.path), tt.path)
	}
}

// TestLoadFiles tests file-backed layering with missing candidates
func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	override := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(base, []byte("a: 1\nb: 1\n"), 0644))
	require.NoError(t, os.WriteFile(override, []byte("b: 2\n"), 0644))

	t.Run("AllPresent", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadFiles(base, override)
		require.NoError(t, err)
		assert.True(t, store.Equal(StoreFromMap(map[string]any{"a": 1, "b": 2})))
	})

	t.Run("MissingFileIsNonFatal", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadFiles(base, filepath.Join(dir, "absent.yaml"))
		require.NotNil(t, store)
		assert.ErrorIs(t, err, ErrConfigNotFound)
		assert.True(t, store.Has("a"))
	})

	t.Run("AllMissing", func(t *testing.T) {
		loader := NewLoader()
		store, err := loader.LoadFiles(filepath.Join(dir, "nope.yaml"))
		require.NotNil(t, store)
		assert.Equal(t, 0, store.Len())
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})
}

// TestSaveFile tests format-selected atomic writes
func TestSaveFile(t *testing.T) {
	cfg := StoreFromPairs([]Pair{
		{Key: "name", Value: "app"},
		{Key: "server", Value: map[string]any{"port": 8080}},
	})

	formats := []string{"out.yaml", "out.toml", "out.json"}
	for _, name := range formats {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)

			loader := NewLoader()
			require.NoError(t, loader.SaveFile(path, cfg))

			reread, err := loader.LoadFiles(path)
			require.NoError(t, err)
			assert.True(t, cfg.Equal(reread))
		})
	}

	t.Run("WorldReadablePermissions", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.yaml")

		loader := NewLoader()
		require.NoError(t, loader.SaveFile(path, cfg))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	})

	t.Run("CreatesParentDirectories", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "deep", "nested", "out.yaml")

		loader := NewLoader()
		require.NoError(t, loader.SaveFile(path, cfg))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})
}
