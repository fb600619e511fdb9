// FILE: lixenwraith/nestconf/doc.go

// Package nestconf provides hierarchical, mergeable configuration storage
// for command-line tools: a nested key-value store addressable either as
// nested mappings or via a single dotted path, backed by layered loading
// and multi-document YAML serialization.
//
// Features:
//   - Insertion-ordered nested Store with lazy recasting of foreign mappings
//   - Literal and dotted addressing views over shared storage
//   - Deep merge with forward (source wins) and inverse (target wins) modes
//   - Multi-document codec separating the configuration document from side
//     documents handled through explicit hooks
//   - Layered file loading with four-level discovery (super configs,
//     packaged default, home directory, working directory)
//   - TOML and JSON single-document sources with format detection
//   - Struct scanning via mapstructure with duration/IP/URL decode hooks
//   - Builder pattern for easy initialization
//   - Metadata-tracked file configuration with content hashing and polling
//     reload
//
// Quick Start:
//
//	cfg, err := nestconf.MakeDotted(map[string]any{
//	    "server": map[string]any{"host": "localhost", "port": 8080},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, _ := cfg.String("server.host")
//	port, _ := cfg.Int64("server.port")
//
// Dotted resolution is store-dependent: a literal key containing the
// separator always wins over its hierarchical reading at the point of a
// direct match, so data with dotted keys stays addressable.
//
// Layered loading:
//
//	cfg, err := nestconf.NewBuilder().
//	    WithDefaults(defaults).
//	    WithDiscovery(nestconf.DefaultDiscoveryOptions("myapp")).
//	    WithFiles("override.yml").
//	    Build()
//
// Precedence is strictly increasing: defaults, super configs, packaged
// default, home directory, working directory, explicit files.
//
// Concurrency:
// Stores and views perform no internal locking; at most one writer at a
// time is supported. Hosts needing concurrent access must serialize writes
// to a given Store externally. Callers needing atomic multi-step updates
// should operate on a Clone and swap it in on success.
package nestconf
