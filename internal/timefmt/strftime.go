/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package timefmt converts strftime-style format strings (the date/time
// formats a logstat user supplies) into Go's reference-time layout
// strings, hand-writing a Go layout per named directive (e.g.
// "02/Jan/2006:15:04:05 -0700" for "%d/%b/%Y:%H:%M:%S %z"). logstat always
// parses against the single format the user configured, rather than trying
// a fixed catalog of known formats and remembering which one last matched.
package timefmt

import (
	"strings"
	"time"
)

// CanonicalDateLayout is the internal YYYYMMDD form the parser stores in
// record.Entry.Date and uses as the visitors-module datamap key.
const CanonicalDateLayout = "20060102"

// ParseCanonicalDate parses a CanonicalDateLayout string, for display-time
// reformatting in the visitors module.
func ParseCanonicalDate(s string) (time.Time, error) {
	return time.Parse(CanonicalDateLayout, s)
}

// directive -> Go reference-time layout fragment.
var directiveLayout = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'z': "-0700",
	'Z': "MST",
	'%': "%",
}

// ToLayout converts a strftime-style format string into a Go reference-time
// layout. Unknown directives pass their '%' + letter through literally
// (they will simply fail to match real timestamp text, surfacing as a parse
// error rather than a silent misparse).
func ToLayout(strftime string) string {
	var b strings.Builder
	for i := 0; i < len(strftime); i++ {
		c := strftime[i]
		if c == '%' && i+1 < len(strftime) {
			d := strftime[i+1]
			if layout, ok := directiveLayout[d]; ok {
				b.WriteString(layout)
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// SpaceCount returns the number of literal space characters that appear in
// a strftime format string. The log-line parser's %d directive consumes
// this many additional delimiter-separated words from the input so that
// multi-word dates like "Jul 15" (format "%b %d") are captured as one token.
func SpaceCount(strftime string) int {
	return strings.Count(strftime, " ")
}
