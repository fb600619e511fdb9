// FILE: lixenwraith/nestconf/discovery.go
package nestconf

import (
	"os"
	"path/filepath"
	"strings"
)

// FileDiscoveryOptions configures the candidate-file search for layered
// configuration loading. Candidates are returned in ascending precedence
// order; later files override earlier ones when merged.
type FileDiscoveryOptions struct {
	// Base name of the config file (with or without extension)
	Name string

	// Extensions to try when Name has none (in order)
	Extensions []string

	// Super-configuration files, loaded before everything else
	// (lowest precedence)
	SuperPaths []string

	// Packaged default configuration file shipped with the application
	DefaultPath string

	// Whether to search the user's home directory
	UseHomeDir bool

	// Whether to search the current working directory
	UseCurrentDir bool

	// Environment variable naming an explicit config file
	// (highest precedence)
	EnvVar string
}

// DefaultDiscoveryOptions returns sensible defaults for an application name.
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".yml", ".yaml"},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		UseHomeDir:    true,
		UseCurrentDir: true,
	}
}

// CandidatePaths resolves the ordered list of candidate files:
//
//  1. the super-configuration files, in the given order
//  2. the packaged default file
//  3. the named file in the user's home directory
//  4. the named file in the working directory
//  5. the file named by the environment variable, if set
//
// Precedence is strictly increasing in list order. Candidates are not
// checked for existence here; the loader skips missing files.
func (o FileDiscoveryOptions) CandidatePaths() []string {
	var paths []string

	paths = append(paths, o.SuperPaths...)

	if o.DefaultPath != "" {
		paths = append(paths, o.DefaultPath)
	}

	names := o.fileNames()

	if o.UseHomeDir {
		if home, err := os.UserHomeDir(); err == nil {
			for _, name := range names {
				paths = append(paths, filepath.Join(home, name))
			}
		}
	}

	if o.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			for _, name := range names {
				paths = append(paths, filepath.Join(cwd, name))
			}
		}
	}

	if o.EnvVar != "" {
		if path := os.Getenv(o.EnvVar); path != "" {
			paths = append(paths, path)
		}
	}

	return paths
}

// fileNames expands Name with the configured extensions when it has none.
func (o FileDiscoveryOptions) fileNames() []string {
	if o.Name == "" {
		return nil
	}
	if filepath.Ext(o.Name) != "" || len(o.Extensions) == 0 {
		return []string{o.Name}
	}
	names := make([]string, 0, len(o.Extensions))
	for _, ext := range o.Extensions {
		names = append(names, o.Name+ext)
	}
	return names
}

// Discover runs the candidate search and loads every file that exists, in
// ascending precedence order.
func (l *Loader) Discover(opts FileDiscoveryOptions) (*Store, error) {
	return l.LoadFiles(opts.CandidatePaths()...)
}
