/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package classify implements pure lookup-table functions mapping a
// user-agent string to browser/OS family pairs, and a status code to its
// human label and class.
//
// Detection is precedence-ordered substring matching: the first matching
// pattern in the table wins, encoded explicitly as an ordered rule list
// rather than chained substring fall-through.
package classify

import "strings"

// Pair is one classification result: a specific label and the family it
// rolls up into (e.g. "Windows 10" / "Windows").
type Pair struct {
	Name string
	Family string
}

type rule struct {
	pattern string
	family string
}

// browserRules is precedence-ordered: engines that embed another browser's
// token (e.g. Edge embeds "Chrome", Chrome embeds "Safari") are listed first.
var browserRules = []rule{
	{"edg/", "Edge"},
	{"opr/", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser/", "Samsung Browser"},
	{"chrome/", "Chrome"},
	{"crios/", "Chrome"},
	{"fxios/", "Firefox"},
	{"firefox/", "Firefox"},
	{"version/", "Safari"}, // Safari marks its product version via Version/, not Safari/
	{"safari/", "Safari"},
	{"msie ", "MSIE"},
	{"trident/", "MSIE"},
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"bot", "Crawler"},
	{"spider", "Crawler"},
	{"crawler", "Crawler"},
	{"slurp", "Crawler"},
}

var osRules = []rule{
	{"windows nt 10", "Windows"},
	{"windows nt 6.3", "Windows"},
	{"windows nt 6.2", "Windows"},
	{"windows nt 6.1", "Windows"},
	{"windows phone", "Windows Phone"},
	{"windows", "Windows"},
	{"android", "Android"},
	{"cros", "Chrome OS"},
	{"iphone", "iOS"},
	{"ipad", "iOS"},
	{"ipod", "iOS"},
	{"mac os x", "Mac OS X"},
	{"macintosh", "Mac OS X"},
	{"linux", "Linux"},
	{"freebsd", "FreeBSD"},
}

// realOSLabels widens the osRules vocabulary to specific distribution/version
// strings when Config.RealOS is enabled (real_os), e.g.
// "Windows 10" rather than the bare family "Windows".
var realOSLabels = map[string]string{
	"windows nt 10": "Windows 10",
	"windows nt 6.3": "Windows 8.1",
	"windows nt 6.2": "Windows 8",
	"windows nt 6.1": "Windows 7",
}

func lower(s string) string { return strings.ToLower(s) }

// Browser returns the browser name and family for a user-agent string.
// Name is the family label itself; no browser version is extracted from
// the agent. Pair{"Unknown", "Unknown"} means no rule matched.
func Browser(agent string) Pair {
	la := lower(agent)
	for _, r := range browserRules {
		if strings.Contains(la, r.pattern) {
			return Pair{Name: r.family, Family: r.family}
		}
	}
	return Pair{Name: "Unknown", Family: "Unknown"}
}

// OS returns the OS name and family for a user-agent string. When realOS is
// true, widens to version-specific labels where the table knows one.
func OS(agent string, realOS bool) Pair {
	la := lower(agent)
	for _, r := range osRules {
		if strings.Contains(la, r.pattern) {
			name := r.family
			if realOS {
				if label, ok := realOSLabels[r.pattern]; ok {
					name = label
				}
			}
			return Pair{Name: name, Family: r.family}
		}
	}
	return Pair{Name: "Unknown", Family: "Unknown"}
}

var statusLabels = map[string]string{
	"100": "100 Continue", "101": "101 Switching Protocols",
	"200": "200 OK", "201": "201 Created", "204": "204 No Content",
	"206": "206 Partial Content",
	"301": "301 Moved Permanently", "302": "302 Found", "304": "304 Not Modified",
	"307": "307 Temporary Redirect", "308": "308 Permanent Redirect",
	"400": "400 Bad Request", "401": "401 Unauthorized", "403": "403 Forbidden",
	"404": "404 Not Found", "405": "405 Method Not Allowed", "408": "408 Request Timeout",
	"429": "429 Too Many Requests", "444": "444 No Response",
	"500": "500 Internal Server Error", "501": "501 Not Implemented",
	"502": "502 Bad Gateway", "503": "503 Service Unavailable", "504": "504 Gateway Timeout",
}

var classLabels = map[byte]string{
	'1': "1xx Informational",
	'2': "2xx Success",
	'3': "3xx Redirection",
	'4': "4xx Client Errors",
	'5': "5xx Server Errors",
}

// StatusClass returns (code_label, class_label) for a 3-digit status code
// (status_class). Unrecognized-but-well-formed codes fall back to
// a generic "NNN" label within their class.
func StatusClass(code string) (label, class string) {
	if len(code) != 3 {
		return code, "Unknown"
	}
	if l, ok := statusLabels[code]; ok {
		label = l
	} else {
		label = code
	}
	class, ok := classLabels[code[0]]
	if !ok {
		class = "Unknown"
	}
	return label, class
}

// crawlerMarkers are substrings identifying automated clients, used when
// Config.IgnoreCrawlers is set.
var crawlerMarkers = []string{
	"bot", "crawl", "spider", "slurp", "archiver", "facebookexternalhit",
}

// IsCrawler reports whether agent matches a known crawler/bot marker.
func IsCrawler(agent string) bool {
	la := lower(agent)
	for _, m := range crawlerMarkers {
		if strings.Contains(la, m) {
			return true
		}
	}
	return false
}

// IsStatic reports whether path ends with one of extensions (case-sensitive).
// Paths shorter than the longest configured extension are rejected up
// front.
func IsStatic(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return false
	}
	longest := len(extensions[0])
	for _, ext := range extensions[1:] {
		if len(ext) > longest {
			longest = len(ext)
		}
	}
	if len(path) < longest {
		return false
	}
	for _, ext := range extensions {
		if len(path) >= len(ext) && strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Is404 reports whether status represents a not-found hit, optionally
// treating 444 as 404 too (404 detection, code_444_as_404).
func Is404(status string, treat444AsNotFound bool) bool {
	if status == "404" {
		return true
	}
	return treat444AsNotFound && status == "444"
}
