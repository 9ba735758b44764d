/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package metricstore implements per-module collections of keyed counters,
// cumulative sums, and auxiliary mappings keyed by interned id.
package metricstore

import (
	"fmt"

	"github.com/gravwell/logstat/internal/intern"
)

// Hit is the per-id counter plus the last-seen root/uniq ids (hits
// table).
type Hit struct {
	Count uint64
	RootID uint32
	UniqID uint32
}

// Panel holds every sub-map for one module, all keyed by a data-key id minted
// from Keys. Panel is single-writer (the parser/aggregator goroutine);
// concurrent readers must coordinate externally.
type Panel struct {
	Keys *intern.Table // data-key scope
	Uniqs *intern.Table // uniq-visitor scope, keys are "uniqID:dataID"

	datamap map[uint32]string
	rootmap map[uint32]string
	hits map[uint32]*Hit
	visitors map[uint32]uint64
	bandwidth map[uint32]uint64
	timeServed map[uint32]uint64
	timeMax map[uint32]uint64
	methods map[uint32]string
	protocols map[uint32]string
	agents map[uint32]map[uint32]struct{} // hosts module only

	// TracksBandwidth/TracksTime mirror whether the active log format
	// actually captures %b/%D,%T,%L; when false, bandwidth/time sums are
	// never touched rather than being accumulated as zero.
	TracksBandwidth bool
	TracksTime bool
}

func newPanel() *Panel {
	return &Panel{
		Keys: intern.New(),
		Uniqs: intern.New(),
		datamap: make(map[uint32]string),
		rootmap: make(map[uint32]string),
		hits: make(map[uint32]*Hit),
		visitors: make(map[uint32]uint64),
		bandwidth: make(map[uint32]uint64),
		timeServed: make(map[uint32]uint64),
		timeMax: make(map[uint32]uint64),
		methods: make(map[uint32]string),
		protocols: make(map[uint32]string),
		agents: make(map[uint32]map[uint32]struct{}),
	}
}

// Store is the full set of panels, one per module.
type Store struct {
	panels [int(numModules)]*Panel
}

// New returns a Store with an empty, initialized Panel per module.
func New() *Store {
	s := &Store{}
	for i := range s.panels {
		s.panels[i] = newPanel()
	}
	return s
}

// Panel returns the panel for m. Panels are pre-allocated; this never
// returns nil for a valid Module.
func (s *Store) Panel(m Module) *Panel {
	return s.panels[m]
}

// SetTracking stamps every panel's TracksBandwidth/TracksTime flags,
// reflecting whether the active log format actually captures those fields.
func (s *Store) SetTracking(bandwidth, time bool) {
	for _, p := range s.panels {
		p.TracksBandwidth = bandwidth
		p.TracksTime = time
	}
}

// InsertHit creates or increments the hits entry for dataID, recording the
// most recently observed root/uniq ids (insert_hit).
func (p *Panel) InsertHit(dataID, uniqID, rootID uint32) {
	h, ok := p.hits[dataID]
	if !ok {
		h = &Hit{}
		p.hits[dataID] = h
	}
	h.Count++
	h.RootID = rootID
	h.UniqID = uniqID
}

// InsertVisitor increments the visitor count for dataID. Callers must only
// call this when SeenUniq reports the (uniq, data) pair as new.
func (p *Panel) InsertVisitor(dataID uint32) {
	p.visitors[dataID]++
}

// SeenUniq interns "uniqID:dataID" in the panel's uniq scope and reports
// whether this is the first time the pair has been observed.
func (p *Panel) SeenUniq(uniqID, dataID uint32) (firstTime bool, err error) {
	key := fmt.Sprintf("%d:%d", uniqID, dataID)
	before := p.Uniqs.Len()
	if _, err = p.Uniqs.Intern(key); err != nil {
		return false, err
	}
	return p.Uniqs.Len() > before, nil
}

// SetData records the human-readable value for dataID (datamap).
func (p *Panel) SetData(dataID uint32, data string) {
	if _, exists := p.datamap[dataID]; !exists {
		p.datamap[dataID] = data
	}
}

// SetRoot records the parent/category label for rootID (rootmap).
func (p *Panel) SetRoot(rootID uint32, root string) {
	if _, exists := p.rootmap[rootID]; !exists {
		p.rootmap[rootID] = root
	}
}

// AddBandwidth adds bytes to the cumulative response size for dataID, unless
// TracksBandwidth is false, in which case it is a no-op: the active log
// format never captured a size field, so there's nothing real to sum.
func (p *Panel) AddBandwidth(dataID uint32, bytes uint64) {
	if !p.TracksBandwidth {
		return
	}
	p.bandwidth[dataID] += bytes
}

// AddTime adds us to the cumulative serve time for dataID and tracks the
// running maximum observed for that id, unless TracksTime is false.
func (p *Panel) AddTime(dataID uint32, us uint64) {
	if !p.TracksTime {
		return
	}
	p.timeServed[dataID] += us
	if us > p.timeMax[dataID] {
		p.timeMax[dataID] = us
	}
}

// SetMethod records the first-observed method string for dataID.
func (p *Panel) SetMethod(dataID uint32, method string) {
	if _, ok := p.methods[dataID]; !ok && method != "" {
		p.methods[dataID] = method
	}
}

// SetProtocol records the first-observed protocol string for dataID.
func (p *Panel) SetProtocol(dataID uint32, proto string) {
	if _, ok := p.protocols[dataID]; !ok && proto != "" {
		p.protocols[dataID] = proto
	}
}

// InsertAgentForHost adds agentID to the set of agents seen for host dataID.
// It is an idempotent set insert: observing the same agent twice is a no-op.
func (p *Panel) InsertAgentForHost(dataID uint32, agentID uint32) {
	set, ok := p.agents[dataID]
	if !ok {
		set = make(map[uint32]struct{})
		p.agents[dataID] = set
	}
	set[agentID] = struct{}{}
}

// Data returns the datamap string for id.
func (p *Panel) Data(id uint32) (string, bool) {
	v, ok := p.datamap[id]
	return v, ok
}

// Root returns the rootmap string for id.
func (p *Panel) Root(id uint32) (string, bool) {
	v, ok := p.rootmap[id]
	return v, ok
}

// Hit returns the hit entry for id.
func (p *Panel) Hit(id uint32) (Hit, bool) {
	h, ok := p.hits[id]
	if !ok {
		return Hit{}, false
	}
	return *h, true
}

// Visitors returns the distinct-visitor count for id.
func (p *Panel) Visitors(id uint32) uint64 { return p.visitors[id] }

// Bandwidth returns the cumulative bytes for id.
func (p *Panel) Bandwidth(id uint32) uint64 { return p.bandwidth[id] }

// TimeServed returns the cumulative microseconds for id.
func (p *Panel) TimeServed(id uint32) uint64 { return p.timeServed[id] }

// MaxTime returns the largest single serve time observed for id.
func (p *Panel) MaxTime(id uint32) uint64 { return p.timeMax[id] }

// Method returns the first-observed method for id, if any.
func (p *Panel) Method(id uint32) (string, bool) {
	v, ok := p.methods[id]
	return v, ok
}

// Protocol returns the first-observed protocol for id, if any.
func (p *Panel) Protocol(id uint32) (string, bool) {
	v, ok := p.protocols[id]
	return v, ok
}

// Agents returns the set of agent ids observed for host dataID.
func (p *Panel) Agents(dataID uint32) []uint32 {
	set, ok := p.agents[dataID]
	if !ok {
		return nil
	}
	out := make([]uint32, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Ids returns every data id present in hits, the enumeration basis for the
// holder/ranker.
func (p *Panel) Ids() []uint32 {
	out := make([]uint32, 0, len(p.hits))
	for id := range p.hits {
		out = append(out, id)
	}
	return out
}
