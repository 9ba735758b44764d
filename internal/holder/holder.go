/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package holder implements the ranked, sub-item-aware snapshot view
// over a metricstore.Panel that exporters and the interactive UI consume.
package holder

import (
	"sort"

	"github.com/gravwell/logstat/internal/metricstore"
	"github.com/gravwell/logstat/internal/timefmt"
)

// MaxChoices bounds the number of top-level items a snapshot carries.
const MaxChoices = 366

// SortField selects which metric (or the data string itself) orders items.
type SortField int

const (
	SortByHits SortField = iota
	SortByVisitors
	SortByBandwidth
	SortByAvgTime
	SortByCumTime
	SortByMaxTime
	SortByData
	SortByMethod
	SortByProtocol
)

// SortOrder is ascending or descending.
type SortOrder int

const (
	Descending SortOrder = iota
	Ascending
)

// Spec bundles a sort field and direction, used for both the top-level list
// and (independently) any child list.
type Spec struct {
	Field SortField
	Order SortOrder
}

// Item is one ranked row: a holder item (glossary "Holder item").
type Item struct {
	DataID uint32
	Data string
	Hits uint64
	Visitors uint64
	Bandwidth uint64
	AvgTimeUS uint64
	CumTimeUS uint64
	MaxTimeUS uint64
	Method string
	Protocol string
	SubItems []*Item
}

// Build ranks every id in panel's hits table and, for modules that carry a
// rootmap, groups items under synthesized root entries. normalizeDates
// triggers the visitors-module date normalization and must only be set
// true for the Visitors panel.
func Build(panel *metricstore.Panel, spec Spec, normalizeDates bool) []*Item {
	ids := panel.Ids()
	items := make([]*Item, 0, len(ids))
	roots := make(map[uint32]*Item)
	var rootOrder []uint32
	var standalone []*Item

	for _, id := range ids {
		it := itemFromPanel(panel, id)
		if normalizeDates {
			it.Data = normalizeVisitorDate(it.Data)
		}
		items = append(items, it)

		hit, _ := panel.Hit(id)
		if hit.RootID == 0 {
			standalone = append(standalone, it)
			continue
		}
		root, ok := roots[hit.RootID]
		if !ok {
			label, _ := panel.Root(hit.RootID)
			root = &Item{DataID: hit.RootID, Data: label}
			roots[hit.RootID] = root
			rootOrder = append(rootOrder, hit.RootID)
		}
		root.SubItems = append(root.SubItems, it)
	}

	if len(roots) == 0 {
		sortItems(standalone, spec)
		return truncate(standalone)
	}

	top := make([]*Item, 0, len(rootOrder))
	for _, rid := range rootOrder {
		root := roots[rid]
		sortItems(root.SubItems, spec)
		sumInto(root)
		top = append(top, root)
	}
	top = append(top, standalone...)
	sortItems(top, spec)
	return truncate(top)
}

func itemFromPanel(panel *metricstore.Panel, id uint32) *Item {
	data, _ := panel.Data(id)
	hit, _ := panel.Hit(id)
	cum := panel.TimeServed(id)
	var avg uint64
	if hit.Count > 0 {
		avg = cum / hit.Count
	}
	method, _ := panel.Method(id)
	protocol, _ := panel.Protocol(id)
	return &Item{
		DataID: id,
		Data: data,
		Hits: hit.Count,
		Visitors: panel.Visitors(id),
		Bandwidth: panel.Bandwidth(id),
		AvgTimeUS: avg,
		CumTimeUS: cum,
		MaxTimeUS: panel.MaxTime(id),
		Method: method,
		Protocol: protocol,
	}
}

// sumInto sets root's own metrics to the sum of its children (step
// 5: "a synthesized root-level entry whose metrics are the sum of its
// children").
func sumInto(root *Item) {
	var hits, visitors, bw, cum, maxT uint64
	for _, c := range root.SubItems {
		hits += c.Hits
		visitors += c.Visitors
		bw += c.Bandwidth
		cum += c.CumTimeUS
		if c.MaxTimeUS > maxT {
			maxT = c.MaxTimeUS
		}
	}
	root.Hits = hits
	root.Visitors = visitors
	root.Bandwidth = bw
	root.CumTimeUS = cum
	root.MaxTimeUS = maxT
	if hits > 0 {
		root.AvgTimeUS = cum / hits
	}
}

func truncate(items []*Item) []*Item {
	if len(items) > MaxChoices {
		return items[:MaxChoices]
	}
	return items
}

func sortItems(items []*Item, spec Spec) {
	less := func(i, j int) bool {
		a, b := items[i], items[j]
		primary := compare(a, b, spec.Field)
		if primary == 0 {
			// secondary: hit count tie-break
			primary = compareUint(a.Hits, b.Hits)
		}
		if spec.Order == Ascending {
			return primary < 0
		}
		return primary > 0
	}
	sort.SliceStable(items, less)
}

func compare(a, b *Item, field SortField) int {
	switch field {
	case SortByHits:
		return compareUint(a.Hits, b.Hits)
	case SortByVisitors:
		return compareUint(a.Visitors, b.Visitors)
	case SortByBandwidth:
		return compareUint(a.Bandwidth, b.Bandwidth)
	case SortByAvgTime:
		return compareUint(a.AvgTimeUS, b.AvgTimeUS)
	case SortByCumTime:
		return compareUint(a.CumTimeUS, b.CumTimeUS)
	case SortByMaxTime:
		return compareUint(a.MaxTimeUS, b.MaxTimeUS)
	case SortByData:
		return compareString(a.Data, b.Data)
	case SortByMethod:
		return compareString(a.Method, b.Method)
	case SortByProtocol:
		return compareString(a.Protocol, b.Protocol)
	default:
		return 0
	}
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// normalizeVisitorDate converts a canonical YYYYMMDD datamap value into
// DD/Mon/YYYY for display, falling back to "---" on failure (// "Visitors module date normalization").
func normalizeVisitorDate(canonical string) string {
	t, err := timefmt.ParseCanonicalDate(canonical)
	if err != nil {
		return "---"
	}
	return t.Format("02/Jan/2006")
}
