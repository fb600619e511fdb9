// FILE: lixenwraith/nestconf/errors.go
package nestconf

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the store, codec and loader. Callers should
// test with errors.Is; most errors are returned wrapped with the offending
// key, document index or source identifier.
var (
	// ErrKeyNotFound is returned when a key (literal or dotted path) does not
	// resolve against a Store. Descending a path through a scalar surfaces as
	// ErrKeyNotFound too: from the caller's view the path does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrDecode is returned when a serialized document cannot be parsed.
	// Fatal for the configuration document, reported-only for side documents.
	ErrDecode = errors.New("document decode failed")

	// ErrEmptyDocumentStream is returned when a source contains no documents.
	ErrEmptyDocumentStream = errors.New("empty document stream")

	// ErrConfigNotFound is returned when a candidate configuration file does
	// not exist. It is non-fatal during multi-file loads.
	ErrConfigNotFound = errors.New("configuration file not found")
)

// errSideDocument marks decode failures of side documents so layered loads
// can tell them apart from configuration-document failures.
var errSideDocument = errors.New("side document")

// keyError wraps ErrKeyNotFound with the key that failed to resolve.
func keyError(key string) error {
	return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
}
