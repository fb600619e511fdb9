// FILE: lixenwraith/nestconf/watch.go
package nestconf

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"
)

// WatchOptions configures file watching behavior.
type WatchOptions struct {
	// PollInterval for file stat checks (minimum 100ms)
	PollInterval time.Duration

	// Debounce duration to avoid rapid reloads
	Debounce time.Duration
}

// DefaultWatchOptions returns sensible defaults for file watching.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval: DefaultPollInterval,
		Debounce:     DefaultDebounce,
	}
}

// Watch polls the active configuration file and reloads it when it changes,
// sending the reloaded path on the returned channel after each successful
// reload. Watching stops when the context is cancelled; the channel is
// closed on exit. Reloads merge over the current configuration, so file
// edits override earlier values the same way layered loading does.
func (f *FileConfig) Watch(ctx context.Context) (<-chan string, error) {
	return f.WatchWithOptions(ctx, DefaultWatchOptions())
}

// WatchWithOptions is Watch with explicit polling parameters.
func (f *FileConfig) WatchWithOptions(ctx context.Context, opts WatchOptions) (<-chan string, error) {
	path := f.Path()
	if path == "" {
		return nil, errors.New("no configuration file set")
	}
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}

	events := make(chan string, 1)
	var lastMod time.Time
	var lastSize int64
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
		lastSize = info.Size()
	}

	var reloading atomic.Bool
	go func() {
		defer close(events)
		ticker := time.NewTicker(opts.PollInterval)
		defer ticker.Stop()

		var pendingSince time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			changed := !info.ModTime().Equal(lastMod) || info.Size() != lastSize
			if changed && pendingSince.IsZero() {
				pendingSince = time.Now()
			}
			if pendingSince.IsZero() || time.Since(pendingSince) < opts.Debounce {
				continue
			}
			pendingSince = time.Time{}
			lastMod = info.ModTime()
			lastSize = info.Size()

			if !reloading.CompareAndSwap(false, true) {
				continue
			}
			err = f.Load(path)
			reloading.Store(false)
			if err != nil && f.fatal(err) {
				continue
			}

			select {
			case events <- path:
			default:
				// Subscriber is slow; drop rather than block the poll loop.
			}
		}
	}()

	return events, nil
}
