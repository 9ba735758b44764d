/*************************************************************************
 * Copyright 2026 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravwell/logstat/internal/holder"
	"github.com/gravwell/logstat/internal/metricstore"
)

func TestCSVWriterQuotesEveryFieldAndUsesCRLF(t *testing.T) {
	items := []*holder.Item{
		{Data: `say "hi"`, Hits: 3, Visitors: 2, Bandwidth: 100, AvgTimeUS: 10, Method: "GET", Protocol: "HTTP/1.1"},
	}

	var buf bytes.Buffer
	require.NoError(t, CSVWriter{}.WriteModule(&buf, metricstore.Requests, items))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\r\n"))
	assert.Contains(t, out, `"say ""hi"""`)
	assert.Contains(t, out, `"requests"`)
	assert.Contains(t, out, `"100.00%"`)
}

func TestCSVWriterSubItemsShareParentIndex(t *testing.T) {
	items := []*holder.Item{
		{
			Data: "example.com", Hits: 10,
			SubItems: []*holder.Item{
				{Data: "Mozilla/5.0", Hits: 6},
				{Data: "curl/8.0", Hits: 4},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, CSVWriter{}.WriteModule(&buf, metricstore.Hosts, items))

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"0","",`, lines[0][:len(`"0","",`)])
	assert.Contains(t, lines[1], `"1","0",`)
	assert.Contains(t, lines[2], `"2","0",`)
}

func TestWriteSummaryIsSortedByKey(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, map[string]uint64{"processed": 15, "invalid": 1}))

	out := buf.String()
	assert.True(t, strings.Index(out, "invalid") < strings.Index(out, "processed"))
}
