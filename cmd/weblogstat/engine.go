/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package main

import (
	"github.com/gravwell/logstat/internal/aggregate"
	"github.com/gravwell/logstat/internal/export"
	"github.com/gravwell/logstat/internal/holder"
	"github.com/gravwell/logstat/internal/metricstore"
	"github.com/gravwell/logstat/internal/resolve"
	"github.com/gravwell/logstat/internal/tail"
)

// engine implements the three external-interface contracts names
// for a terminal UI (snapshot/enqueue_host/lookup_hostname/tail_tick):
// export.Snapshotter, export.HostResolver, and export.Ticker. weblogstat
// itself has no UI to drive these, but they're the seam a curses frontend
// would attach to without touching the core.
type engine struct {
	agg *aggregate.Aggregator
	resolver *resolve.Resolver
	follower *tail.Follower
}

var (
	_ export.Snapshotter = (*engine)(nil)
	_ export.HostResolver = (*engine)(nil)
	_ export.Ticker = (*engine)(nil)
)

func (e *engine) Snapshot(m metricstore.Module) []*holder.Item {
	panel := e.agg.Store().Panel(m)
	return holder.Build(panel, holder.Spec{Field: holder.SortByHits, Order: holder.Descending}, m == metricstore.Visitors)
}

func (e *engine) EnqueueHost(ip string) {
	e.resolver.Enqueue(ip)
}

func (e *engine) LookupHostname(ip string) (string, bool) {
	return e.resolver.Lookup(ip)
}

// TailTick lets a curses-mode UI drive the follower directly on its own
// timer instead of relying on the follower's own background
// Run loop. Tick is not safe for concurrent use, so TailTick must not be
// called while the follower's Run loop is active.
func (e *engine) TailTick() error {
	if e.follower == nil {
		return nil
	}
	return e.follower.Tick()
}
