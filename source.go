// FILE: lixenwraith/nestconf/source.go
package nestconf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Source is one raw configuration document stream with its identifier,
// typically a file path. Sources are consumed in ascending precedence order:
// lowest precedence first, each later source merged over the earlier ones.
type Source struct {
	// Name identifies the source in error reports.
	Name string

	// Data is the raw serialized document stream.
	Data []byte

	// Format forces a codec ("yaml", "toml", "json"). Empty means detect
	// from the name's extension, then from the content.
	Format string
}

// Loader folds an ordered list of sources into a single merged Store. File
// and network access happen here, one blocking read per candidate path; the
// core store, merge and codec operations never touch I/O.
type Loader struct {
	// Codec decodes multi-document YAML sources and carries the side
	// document hooks. A nil codec behaves like a zero-value one.
	Codec *Codec
}

// NewLoader creates a Loader with a default codec.
func NewLoader() *Loader {
	return &Loader{Codec: &Codec{}}
}

func (l *Loader) codec() *Codec {
	if l.Codec == nil {
		l.Codec = &Codec{}
	}
	return l.Codec
}

// LoadSources decodes every source and merges the configuration documents in
// ascending precedence order into one Store. Side documents from every
// source are delivered to the codec's OnLoadSideDocuments hook in source
// order then document order, in a single call. Unparsable side documents and
// empty sources are reported through the returned joined error without
// aborting the load; an unparsable configuration document is fatal.
func (l *Loader) LoadSources(sources ...Source) (*Store, error) {
	target := NewStore()
	var side []any
	var loadErrors []error

	for _, src := range sources {
		cfg, srcSide, err := l.decodeSource(src)
		if cfg == nil {
			if errors.Is(err, ErrEmptyDocumentStream) {
				// Nothing to load from this source; layering continues.
				loadErrors = append(loadErrors, fmt.Errorf("source %q: %w", src.Name, ErrEmptyDocumentStream))
				continue
			}
			return nil, err
		}
		if err != nil {
			loadErrors = append(loadErrors, err)
		}
		side = append(side, srcSide...)
		Merge(target, cfg)
	}

	if hook := l.codec().OnLoadSideDocuments; hook != nil {
		hook(side)
	}

	return target, errors.Join(loadErrors...)
}

// LoadFiles reads each candidate path and merges the results in the given
// (ascending precedence) order. Missing files are skipped and reported as
// non-fatal ErrConfigNotFound entries in the joined error.
func (l *Loader) LoadFiles(paths ...string) (*Store, error) {
	var sources []Source
	var loadErrors []error

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				loadErrors = append(loadErrors, fmt.Errorf("%q: %w", path, ErrConfigNotFound))
				continue
			}
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		sources = append(sources, Source{Name: path, Data: data})
	}

	store, err := l.LoadSources(sources...)
	if store == nil {
		return nil, err
	}
	loadErrors = append(loadErrors, err)
	return store, errors.Join(loadErrors...)
}

// decodeSource decodes one source into its configuration Store and side
// documents. YAML streams may hold multiple documents; TOML and JSON are
// single-document formats whose whole content is the configuration.
func (l *Loader) decodeSource(src Source) (*Store, []any, error) {
	format := src.Format
	if format == "" || format == "auto" {
		format = detectFileFormat(src.Name)
		if format == "" {
			format = detectFormatFromContent(src.Data)
		}
		if format == "" {
			format = "yaml"
		}
	}

	switch format {
	case "toml":
		data := make(map[string]any)
		if err := toml.Unmarshal(src.Data, &data); err != nil {
			return nil, nil, fmt.Errorf("source %q: %w: %v", src.Name, ErrDecode, err)
		}
		return StoreFromMap(data), nil, nil

	case "json":
		data := make(map[string]any)
		dec := json.NewDecoder(bytes.NewReader(src.Data))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, nil, fmt.Errorf("source %q: %w: %v", src.Name, ErrDecode, err)
		}
		return StoreFromMap(data), nil, nil

	case "yaml":
		cfg, side, err := l.codec().DecodeParts(bytes.NewReader(src.Data))
		if cfg == nil {
			if errors.Is(err, ErrEmptyDocumentStream) {
				return nil, nil, err
			}
			return nil, nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		if err != nil {
			err = fmt.Errorf("source %q: %w", src.Name, err)
		}
		return cfg, side, err

	default:
		return nil, nil, fmt.Errorf("source %q: unknown format %q", src.Name, format)
	}
}

// SaveFile writes a Store to a file atomically, choosing the format from the
// extension (YAML by default). YAML output goes through the codec so side
// documents from OnSaveSideDocuments are emitted too.
func (l *Loader) SaveFile(path string, cfg *Store) error {
	format := detectFileFormat(path)
	if format == "" {
		format = "yaml"
	}

	var buf bytes.Buffer
	switch format {
	case "yaml":
		if err := l.codec().Encode(&buf, cfg); err != nil {
			return fmt.Errorf("failed to encode config for %q: %w", path, err)
		}
	case "toml":
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(cfg.Map()); err != nil {
			return fmt.Errorf("failed to encode TOML config for %q: %w", path, err)
		}
	case "json":
		data, err := json.MarshalIndent(cfg.Map(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON config for %q: %w", path, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile writes data through a temp file in the target directory,
// renamed into place so readers never observe a partial file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	fill := func() error {
		if _, err := tmp.Write(data); err != nil {
			return err
		}
		// CreateTemp's 0600 is wrong for a config file; fix it through the
		// open handle before the rename makes the file visible.
		if err := tmp.Chmod(0644); err != nil {
			return err
		}
		return tmp.Sync()
	}
	if err := fill(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary file %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %q: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}
	return nil
}

// detectFileFormat determines format from file extension.
func detectFileFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing.
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	// An explicit document marker means a multi-document YAML stream.
	if len(splitDocuments(data)) > 1 {
		return "yaml"
	}

	// Try YAML (superset of JSON, so check after JSON)
	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}

	// Try TOML last
	var tomlTest any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	return ""
}
