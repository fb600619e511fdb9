// FILE: lixenwraith/nestconf/fileconfig.go
package nestconf

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
)

// Metadata keys maintained by FileConfig.
const (
	metaActiveFile  = "files.active"
	metaLoadedFiles = "files.loaded"
	metaHash        = "hash"
)

// FileConfig binds a dotted configuration view to files, carrying a metadata
// document that rides along as a side document: the active file, every file
// merged so far, and a content hash refreshed on save. The metadata document
// is emitted before the configuration document and re-absorbed on load
// through the codec hooks.
type FileConfig struct {
	cfg    *Config
	meta   *Config
	codec  *Codec
	loader *Loader
}

// NewFileConfig creates a file-bound configuration. base accepts the same
// inputs as MakeDotted.
func NewFileConfig(base any, opts ...Option) (*FileConfig, error) {
	cfg, err := MakeDotted(base, opts...)
	if err != nil {
		return nil, err
	}
	meta, err := MakeDotted(nil, opts...)
	if err != nil {
		return nil, err
	}

	f := &FileConfig{cfg: cfg, meta: meta}
	f.codec = &Codec{
		OnLoadSideDocuments: f.absorbMetadata,
		OnSaveSideDocuments: f.metadataDocuments,
	}
	f.loader = &Loader{Codec: f.codec}

	meta.Set(metaActiveFile, "")
	meta.Set(metaLoadedFiles, []any{})
	return f, nil
}

// Config returns the configuration view.
func (f *FileConfig) Config() *Config {
	return f.cfg
}

// Metadata returns the metadata view.
func (f *FileConfig) Metadata() *Config {
	return f.meta
}

// Path returns the active configuration file, used when Load or Save is
// called with an empty path.
func (f *FileConfig) Path() string {
	path, _ := f.meta.String(metaActiveFile)
	return path
}

// SetPath sets the active configuration file for subsequent Load and Save
// calls with an empty path.
func (f *FileConfig) SetPath(path string) {
	f.meta.Set(metaActiveFile, path)
}

// Files returns every file merged into this configuration, in load order.
func (f *FileConfig) Files() []string {
	loaded, err := f.meta.Strings(metaLoadedFiles)
	if err != nil {
		return nil
	}
	return loaded
}

// Load reads a multi-document file and merges its configuration document
// into this configuration; the first side document is merged into the
// metadata. An empty path loads the active file. Side-document parse
// failures are reported through the returned error without aborting.
func (f *FileConfig) Load(path string) error {
	if path == "" {
		path = f.Path()
	}
	if path == "" {
		return errors.New("no configuration file set")
	}

	err := f.loadOne(path)
	if err != nil && f.fatal(err) {
		return err
	}
	return err
}

// LoadAll layers multiple files in ascending precedence order. Missing and
// empty files are reported as non-fatal entries in the joined error; a
// configuration document that fails to parse aborts the layering.
func (f *FileConfig) LoadAll(paths ...string) error {
	var loadErrors []error
	for _, path := range paths {
		if err := f.loadOne(path); err != nil {
			if f.fatal(err) {
				return err
			}
			loadErrors = append(loadErrors, err)
		}
	}
	return errors.Join(loadErrors...)
}

// loadOne reads and merges a single file. A returned error wrapping
// ErrConfigNotFound or ErrEmptyDocumentStream, or joined side-document
// failures, leaves the configuration usable; other errors mean nothing was
// merged from the file.
func (f *FileConfig) loadOne(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q: %w", path, ErrConfigNotFound)
		}
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	store, err := f.codec.Decode(bytes.NewReader(data))
	if store == nil {
		return fmt.Errorf("%q: %w", path, err)
	}
	if err != nil {
		err = fmt.Errorf("%q: %w", path, err)
	}

	Merge(f.cfg.Store(), store)
	f.recordLoaded(path)
	f.meta.Set(metaActiveFile, path)
	return err
}

// fatal reports whether a load error aborted the merge of its file. Missing
// files, empty streams and side-document failures leave the configuration
// usable; a configuration-document failure does not.
func (f *FileConfig) fatal(err error) bool {
	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrEmptyDocumentStream) {
		return false
	}
	return errors.Is(err, ErrDecode) && !errors.Is(err, errSideDocument)
}

// Save writes the metadata document followed by the configuration document,
// atomically. An empty path saves to the active file.
func (f *FileConfig) Save(path string) error {
	if path == "" {
		path = f.Path()
	}
	if path == "" {
		return errors.New("no configuration file set")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", path)
	if err := f.codec.Encode(&buf, f.cfg.Store()); err != nil {
		return fmt.Errorf("failed to encode config for %q: %w", path, err)
	}

	if err := atomicWriteFile(path, buf.Bytes()); err != nil {
		return err
	}
	f.meta.Set(metaActiveFile, path)
	return nil
}

// Hash returns the hex digest of the encoded configuration document.
func (f *FileConfig) Hash() string {
	var buf bytes.Buffer
	if err := (&Codec{}).EncodeParts(&buf, f.cfg.Store(), nil); err != nil {
		return ""
	}
	sum := md5.Sum(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// absorbMetadata merges the first side document into the metadata view;
// extra side documents are ignored.
func (f *FileConfig) absorbMetadata(side []any) {
	if len(side) == 0 {
		return
	}
	if st, ok := side[0].(*Store); ok {
		// Loaded-file history is authoritative locally; keep ours.
		local, _ := f.meta.Get(metaLoadedFiles)
		_ = f.meta.Merge(st)
		if local != nil {
			f.meta.Set(metaLoadedFiles, local)
		}
	}
}

// metadataDocuments emits the metadata store, with a fresh content hash, as
// the single side document preceding the configuration on save.
func (f *FileConfig) metadataDocuments() []any {
	f.meta.Set(metaHash, f.Hash())
	return []any{f.meta.Store().Clone()}
}

func (f *FileConfig) recordLoaded(path string) {
	loaded, err := f.meta.Get(metaLoadedFiles)
	list, ok := loaded.([]any)
	if err != nil || !ok {
		list = nil
	}
	f.meta.Set(metaLoadedFiles, append(list, path))
}
