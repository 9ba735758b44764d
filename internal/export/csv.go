/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gravwell/logstat/internal/holder"
	"github.com/gravwell/logstat/internal/metricstore"
)

// CSVWriter is the one reference renderer exercising the Writer contract:
// fixed column order, every field quoted with embedded quotes doubled, rows
// terminated with \r\n. Root items leave parent_index empty; sub-items
// repeat their parent's index.
type CSVWriter struct{}

var _ Writer = CSVWriter{}

const csvEOL = "\r\n"

func (CSVWriter) WriteModule(w io.Writer, m metricstore.Module, items []*holder.Item) error {
	var total uint64
	for _, it := range items {
		total += it.Hits
	}

	idx := 0
	for _, it := range items {
		if err := writeCSVRow(w, m, it, idx, -1, total); err != nil {
			return err
		}
		parent := idx
		idx++
		for _, sub := range it.SubItems {
			if err := writeCSVRow(w, m, sub, idx, parent, total); err != nil {
				return err
			}
			idx++
		}
	}
	return nil
}

func writeCSVRow(w io.Writer, m metricstore.Module, it *holder.Item, idx, parentIdx int, total uint64) error {
	parent := ""
	if parentIdx >= 0 {
		parent = strconv.Itoa(parentIdx)
	}
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(it.Hits) / float64(total)
	}

	fields := []string{
		strconv.Itoa(idx),
		parent,
		m.String(),
		strconv.FormatUint(it.Hits, 10),
		strconv.FormatUint(it.Visitors, 10),
		fmt.Sprintf("%.2f%%", pct),
		strconv.FormatUint(it.Bandwidth, 10),
		strconv.FormatUint(it.AvgTimeUS, 10),
		it.Method,
		it.Protocol,
		it.Data,
	}
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = quoteCSVField(f)
	}
	_, err := io.WriteString(w, strings.Join(row, ",")+csvEOL)
	return err
}

func quoteCSVField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteSummary emits the leading summary block: one row per general
// metric, with the metric's textual key in the last column.
func WriteSummary(w io.Writer, metrics map[string]uint64) error {
	keys := make([]string, 0, len(metrics))
	for key := range metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for idx, key := range keys {
		row := []string{
			strconv.Itoa(idx),
			"",
			"summary",
			strconv.FormatUint(metrics[key], 10),
			"0",
			"0.00%",
			"0",
			"0",
			"",
			"",
			key,
		}
		for i, f := range row {
			row[i] = quoteCSVField(f)
		}
		if _, err := io.WriteString(w, strings.Join(row, ",")+csvEOL); err != nil {
			return err
		}
	}
	return nil
}
