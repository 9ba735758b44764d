/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package export defines the thin external-interface contract between
// the core engine and its renderers: the terminal UI, and the
// CSV/JSON/HTML report bodies, are deliberately out of scope -- only
// their shapes are preserved here, exercised by one reference CSV
// writer (CSVWriter).
package export

import (
	"io"

	"github.com/gravwell/logstat/internal/holder"
	"github.com/gravwell/logstat/internal/metricstore"
)

// Snapshotter is the read side of the terminal UI contract:
// "snapshot(module) -> ranked list of HolderItem".
type Snapshotter interface {
	Snapshot(m metricstore.Module) []*holder.Item
}

// HostResolver is the terminal UI's DNS-adjacent contract:
// "enqueue_host(ip)" and "lookup_hostname(ip) -> Option<String>".
type HostResolver interface {
	EnqueueHost(ip string)
	LookupHostname(ip string) (string, bool)
}

// Ticker is the terminal UI's timer-driven contract:
// "tail_tick -- invoked by the UI main loop on a timer when running in
// curses mode with a file input."
type Ticker interface {
	TailTick() error
}

// Writer renders one module's ranked items to w. CSVWriter is the only
// concrete implementation in this package; JSON and HTML bodies are out
// of scope (Non-goals) beyond this contract.
type Writer interface {
	WriteModule(w io.Writer, m metricstore.Module, items []*holder.Item) error
}
