/*************************************************************************
 * Copyright 2026 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravwell/logstat/internal/aggregate"
	"github.com/gravwell/logstat/internal/logparser"
	"github.com/gravwell/logstat/internal/metricstore"
	"github.com/gravwell/logstat/internal/record"
	"github.com/gravwell/logstat/internal/resolve"
	"github.com/gravwell/logstat/internal/tail"
)

func newTestEngine(t *testing.T) *engine {
	t.Helper()
	agg := aggregate.New(aggregate.Config{})
	resolver := resolve.New("127.0.0.1:1")
	return &engine{agg: agg, resolver: resolver}
}

func TestEngineSnapshotReflectsIngestedEntries(t *testing.T) {
	e := newTestEngine(t)
	e.agg.Ingest(&record.Entry{Host: "203.0.113.4", RequestPath: "/index.html", Method: "GET", Protocol: "HTTP/1.1", Status: "200"})

	items := e.Snapshot(metricstore.Requests)
	require.Len(t, items, 1)
	assert.Equal(t, "/index.html", items[0].Data)
	assert.EqualValues(t, 1, items[0].Hits)
}

func TestEngineEnqueueAndLookupHostname(t *testing.T) {
	e := newTestEngine(t)
	e.EnqueueHost("203.0.113.4")

	_, ok := e.LookupHostname("203.0.113.4")
	assert.False(t, ok) // resolution hasn't completed yet, cache only has a placeholder
}

func TestEngineTailTickNoFollowerIsNoop(t *testing.T) {
	e := newTestEngine(t)
	assert.NoError(t, e.TailTick())
}

func TestEngineTailTickDrivesFollower(t *testing.T) {
	e := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))

	parser, err := logparser.New(logparser.Config{LogFormat: `%h %^ %^ [%d:%t %^] "%r" %s %b`, DateFormat: "%d/%b/%Y", TimeFormat: "%H:%M:%S"})
	require.NoError(t, err)
	tail.SkipPredicate = func(err error) bool { return err == logparser.ErrSkipLine }

	f, err := tail.New(path, parser, e.agg)
	require.NoError(t, err)
	e.follower = f

	require.NoError(t, os.WriteFile(path, []byte(`203.0.113.4 - - [10/Oct/2023:13:55:36 -0700] "GET /index.html HTTP/1.1" 200 512`+"\n"), 0644))
	require.NoError(t, e.TailTick())

	items := e.Snapshot(metricstore.Requests)
	require.Len(t, items, 1)
}
