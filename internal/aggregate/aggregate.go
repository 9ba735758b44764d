/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package aggregate implements the per-record aggregation pipeline that
// turns a parsed record.Entry into updates across every metricstore module.
package aggregate

import (
	"fmt"
	"net"
	"strings"

	"github.com/gravwell/logstat/internal/classify"
	"github.com/gravwell/logstat/internal/geo"
	"github.com/gravwell/logstat/internal/intern"
	"github.com/gravwell/logstat/internal/metricstore"
	"github.com/gravwell/logstat/internal/record"
)

// IPRule excludes a single host address, either an exact match or a CIDR
// range (excluded_ips: "list of exacts and ranges").
type IPRule struct {
	Exact string
	CIDR *net.IPNet
}

// ParseIPRule builds an IPRule from a configuration string: a bare address
// ("203.0.113.4") or CIDR notation ("203.0.113.0/24").
func ParseIPRule(s string) (IPRule, error) {
	if strings.Contains(s, "/") {
		_, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			return IPRule{}, fmt.Errorf("aggregate: invalid excluded_ips range %q: %w", s, err)
		}
		return IPRule{CIDR: ipnet}, nil
	}
	if net.ParseIP(s) == nil {
		return IPRule{}, fmt.Errorf("aggregate: invalid excluded_ips address %q", s)
	}
	return IPRule{Exact: s}, nil
}

func (r IPRule) matches(host string) bool {
	if r.CIDR != nil {
		ip := net.ParseIP(host)
		return ip != nil && r.CIDR.Contains(ip)
	}
	return r.Exact == host
}

// Config mirrors the relevant options that shape aggregation.
type Config struct {
	AppendMethod bool
	AppendProtocol bool
	IgnoreCrawlers bool
	IncludeClient4xx bool // include_4xx_in_unique
	RealOS bool // real_os: widen the OS module to version-specific labels

	// TracksBandwidth/TracksTime report whether the configured log format
	// actually captures %b and one of %D/%T/%L, so the store can skip
	// summing a field that was never present rather than accumulating zero.
	TracksBandwidth bool
	TracksTime bool

	ExcludedIPs []IPRule
	IgnoredReferrers []string // substring needles, matched against referrer site
	IgnoredPanels map[metricstore.Module]bool

	// GeoLookup resolves a host to a location for the geolocation module.
	// Geolocation lookup itself is an opaque external collaborator; nil
	// disables the geolocation module entirely.
	GeoLookup geo.Resolver
}

// Counters tracks the per-run totals surfaced by the renderer.
type Counters struct {
	Processed uint64
	Invalid uint64
	Excluded uint64
	CumulativeRespSize uint64
}

// Aggregator owns the metric store plus two process-global interners shared
// across every module: one for user agents and one for unique-visitor
// fingerprints. The hostname cache is kept by the resolve package.
type Aggregator struct {
	cfg Config
	store *metricstore.Store

	agents *intern.Table // raw user-agent string -> AgentID
	uniqs *intern.Table // visitor_fingerprint -> uniq_id

	counters Counters
}

// New builds an Aggregator around a fresh metric store.
func New(cfg Config) *Aggregator {
	store := metricstore.New()
	store.SetTracking(cfg.TracksBandwidth, cfg.TracksTime)
	return &Aggregator{
		cfg: cfg,
		store: store,
		agents: intern.New(),
		uniqs: intern.New(),
	}
}

// Store returns the underlying metric store, for the holder/ranker and
// exporters to read from.
func (a *Aggregator) Store() *metricstore.Store { return a.store }

// Counters returns a snapshot of the per-run totals.
func (a *Aggregator) Counters() Counters { return a.counters }

// CountInvalid records one line the caller's parser rejected. Ingest only
// ever sees lines the parser already accepted, so invalid-line counting is
// the caller's responsibility; this keeps Counters.Invalid as the single
// place that total is kept, rather than a local counter per call site.
func (a *Aggregator) CountInvalid() { a.counters.Invalid++ }

func (a *Aggregator) excludedByIP(host string) bool {
	for _, rule := range a.cfg.ExcludedIPs {
		if rule.matches(host) {
			return true
		}
	}
	return false
}

func (a *Aggregator) panelIgnored(m metricstore.Module) bool {
	return a.cfg.IgnoredPanels != nil && a.cfg.IgnoredPanels[m]
}

// Ingest runs one successfully-parsed record through the full pipeline: IP
// exclusion, crawler filtering, global agent/uniq interning, and per-module
// key extraction/insertion.
//
// Ingest only handles records the parser already accepted; lines rejected by
// logparser.Parse must be counted as invalid by the caller, not passed here.
func (a *Aggregator) Ingest(e *record.Entry) {
	a.counters.Processed++

	if a.excludedByIP(e.Host) {
		a.counters.Excluded++
		return
	}
	if a.cfg.IgnoreCrawlers && classify.IsCrawler(e.UserAgent) {
		return
	}

	agent := strings.Join(strings.Fields(e.UserAgent), " ")
	agentID, err := a.agents.Intern(agent)
	if err == nil {
		e.AgentID = agentID
	}

	a.counters.CumulativeRespSize += e.RespSize

	uniqID, _ := a.uniqs.Intern(e.VisitorFingerprint(agent))
	eligibleForUnique := len(e.Status) == 0 || e.Status[0] != '4' || a.cfg.IncludeClient4xx

	for _, spec := range moduleSpecs {
		if a.panelIgnored(spec.module) {
			continue
		}
		a.applyModule(spec, e, uniqID, eligibleForUnique, agentID)
	}
}

func (a *Aggregator) applyModule(spec moduleSpec, e *record.Entry, uniqID uint32, eligibleForUnique bool, agentID uint32) {
	kd, ok := spec.extract(e, a.cfg)
	if !ok {
		return
	}

	panel := a.store.Panel(spec.module)

	dataID, err := panel.Keys.Intern(kd.dataKey)
	if err != nil {
		return
	}
	panel.SetData(dataID, kd.data)

	var rootID uint32
	if kd.hasRoot {
		rootID, err = panel.Keys.Intern(kd.rootKey)
		if err == nil {
			panel.SetRoot(rootID, kd.root)
		}
	}

	var gatedUniq uint32
	if eligibleForUnique {
		gatedUniq = uniqID
	}

	panel.InsertHit(dataID, gatedUniq, rootID)

	if eligibleForUnique {
		if first, err := panel.SeenUniq(uniqID, dataID); err == nil && first {
			panel.InsertVisitor(dataID)
		}
	}

	panel.AddBandwidth(dataID, e.RespSize)
	if e.ServeTimeUS > 0 {
		panel.AddTime(dataID, e.ServeTimeUS)
	}

	if spec.tracksMethodProtocol {
		if a.cfg.AppendMethod {
			panel.SetMethod(dataID, e.Method)
		}
		if a.cfg.AppendProtocol {
			panel.SetProtocol(dataID, e.Protocol)
		}
	}

	if spec.module == metricstore.Hosts {
		panel.InsertAgentForHost(dataID, agentID)
	}
}
