// FILE: lixenwraith/nestconf/timing.go
package nestconf

import "time"

// Core timing constants for file watching.
const (
	// File watching intervals (ordered by frequency)
	MinPollInterval     = 100 * time.Millisecond // Hard floor for file stat polling
	DefaultDebounce     = 500 * time.Millisecond // File change coalescence period
	DefaultPollInterval = time.Second            // Standard file monitoring frequency
)
