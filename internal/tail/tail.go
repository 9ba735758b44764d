/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package tail implements the incremental file-growth follower that
// keeps the aggregation pipeline current between full-file loads. It
// watches one file's size, re-parses only the bytes appended since the
// last tick, and invalidates the holder snapshot so the next render
// re-ranks from the metric store.
package tail

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gravwell/logstat/internal/record"
)

// PollInterval is the tick cadence used both as a fallback when fsnotify
// misses an event and as the sleep between ticks after processing.
const PollInterval = 200 * time.Millisecond

// LineParser turns one raw log line into a record.Entry. Lines the parser
// chooses to skip (blank, comment) return ErrSkipLine-like sentinel errors;
// the follower only needs to know whether to ingest the result.
type LineParser interface {
	Parse(line string) (*record.Entry, error)
}

// Ingester consumes one successfully parsed record.
type Ingester interface {
	Ingest(e *record.Entry)
}

// Follower tracks one file's size and feeds newly appended lines to a
// parser and aggregator. Lines whose parse error SkipPredicate accepts are
// silently dropped; any other parse error bumps the invalid counter and is
// passed to the handler installed with WithInvalidHandler.
type Follower struct {
	path string
	parser LineParser
	ing Ingester
	dns resolveWaker

	onInvalid func(line string, err error)
	onInvalidCount uint64

	size int64
	piped bool
	stopped int32

	invalidated int32 // atomic: set true whenever new lines are ingested
}

// resolveWaker is the subset of *resolve.Resolver the follower calls after
// a non-empty tick. Declared as an interface here so this package does not
// import resolve, avoiding an import cycle.
type resolveWaker interface {
	Wake()
}

// Option configures a Follower at construction time.
type Option func(*Follower)

// WithDNSWaker arranges for resolver.Wake to be called after every tick
// that ingests at least one new line.
func WithDNSWaker(resolver resolveWaker) Option {
	return func(f *Follower) { f.dns = resolver }
}

// WithInvalidHandler installs a callback invoked once per line the parser
// rejects ("parsing errors never propagate past the line
// boundary" — the follower counts them but keeps going).
func WithInvalidHandler(fn func(line string, err error)) Option {
	return func(f *Follower) { f.onInvalid = fn }
}

// ErrSkipLine mirrors logparser.ErrSkipLine's role from the follower's
// point of view: a sentinel the parser returns for lines intentionally not
// counted as invalid. Consumers pass their own parser's sentinel error via
// errors.Is against this value only if they choose to reuse it; in practice
// the follower is agnostic and just checks: skip == nil && err == nil means
// "ingest", err != nil means "count invalid unless the parser's Skip
// predicate says otherwise" (see SkipPredicate).
var ErrSkipLine = errors.New("tail: skip line")

// SkipPredicate lets a caller identify a parser-specific "not really
// invalid" sentinel. Defaults to errors.Is(err, ErrSkipLine).
var SkipPredicate = func(err error) bool { return errors.Is(err, ErrSkipLine) }

// New builds a Follower over an already-open, seekable file at path. The
// initial size is read immediately so the first Tick only processes bytes
// appended after New returns. Piped input (no regular file, size unknown)
// disables tailing entirely.
func New(path string, parser LineParser, ing Ingester, opts ...Option) (*Follower, error) {
	f := &Follower{path: path, parser: parser, ing: ing}
	for _, opt := range opts {
		opt(f)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		f.piped = true
		return f, nil
	}
	f.size = fi.Size()
	return f, nil
}

// Piped reports whether tail-follow is disabled because path is not a
// regular file.
func (f *Follower) Piped() bool { return f.piped }

// TookInvalidated reports and clears whether any tick since the last call
// ingested new lines, for the renderer to decide whether to re-rank.
func (f *Follower) TookInvalidated() bool {
	return atomic.SwapInt32(&f.invalidated, 0) != 0
}

// Tick implements five-step algorithm once. It is safe to call
// repeatedly from a single goroutine; Run wraps it in a poll/fsnotify loop.
func (f *Follower) Tick() error {
	if f.piped {
		return nil
	}

	fi, err := os.Stat(f.path)
	if err != nil {
		return err
	}
	newSize := fi.Size()
	if newSize == f.size {
		return nil // no-op: no new bytes (boundary case)
	}
	if newSize < f.size {
		// file was truncated/rotated underneath us; restart from the top
		f.size = 0
	}

	fh, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer fh.Close()

	if _, err := fh.Seek(f.size, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(fh)
	var sawLine bool
	var offset int64 = f.size
	for {
		line, readErr := reader.ReadString('\n')
		if line != "" {
			offset += int64(len(line))
			entry, perr := f.parser.Parse(line)
			switch {
			case perr == nil:
				f.ing.Ingest(entry)
				sawLine = true
			case SkipPredicate(perr):
				// intentionally not counted as invalid
			default:
				f.onInvalidCount++
				if f.onInvalid != nil {
					f.onInvalid(line, perr)
				}
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				return readErr
			}
			break
		}
	}
	f.size = offset

	if sawLine {
		atomic.StoreInt32(&f.invalidated, 1)
		if f.dns != nil {
			f.dns.Wake()
		}
	}
	return nil
}

// InvalidCount returns the running total of lines this follower has
// rejected since construction.
func (f *Follower) InvalidCount() uint64 { return f.onInvalidCount }

// Run drives Tick on a loop until Stop is called, waking early on fsnotify
// write events and otherwise falling back to PollInterval. Piped input
// makes Run return immediately without reading anything, matching Tick's
// own no-op behavior.
func (f *Follower) Run(onErr func(error)) {
	if f.piped {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		if onErr != nil {
			onErr(err)
		}
		f.pollLoop(onErr)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(f.path); err != nil {
		if onErr != nil {
			onErr(err)
		}
		f.pollLoop(onErr)
		return
	}

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for atomic.LoadInt32(&f.stopped) == 0 {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := f.Tick(); err != nil && onErr != nil {
					onErr(err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if onErr != nil {
				onErr(err)
			}
		case <-ticker.C:
			if err := f.Tick(); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

func (f *Follower) pollLoop(onErr func(error)) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for atomic.LoadInt32(&f.stopped) == 0 {
		<-ticker.C
		if err := f.Tick(); err != nil && onErr != nil {
			onErr(err)
		}
	}
}

// Stop ends a running Run loop. It does not close the follower; Tick may
// still be called directly afterward.
func (f *Follower) Stop() { atomic.StoreInt32(&f.stopped, 1) }
