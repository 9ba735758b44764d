/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package logparser implements a format-directed tokenizer that turns
// one raw log line into a typed record.Entry.
package logparser

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gravwell/logstat/internal/classify"
	"github.com/gravwell/logstat/internal/record"
	"github.com/gravwell/logstat/internal/timefmt"
)

// ErrInvalidLine is wrapped into the error returned for any line that fails
// to parse (Failure model). Empty lines and comment lines are
// reported via ErrSkipLine instead, since they are not counted as invalid.
var (
	ErrInvalidLine = errors.New("logparser: invalid line")
	ErrSkipLine = errors.New("logparser: skip line")
)

var validMethods = map[string]bool{
	"OPTIONS": true, "GET": true, "HEAD": true, "POST": true, "PUT": true,
	"DELETE": true, "TRACE": true, "CONNECT": true, "PATCH": true,
}

var validProtocols = map[string]bool{
	"HTTP/1.0": true, "HTTP/1.1": true,
}

// Config holds the three user-supplied format strings plus the behavioral
// options the parser itself needs.
type Config struct {
	LogFormat string
	DateFormat string
	TimeFormat string

	IgnoreQueryString bool
	DoubleDecode bool
	Code444AsNotFound bool
	StaticExtensions []string
}

// Parser holds a compiled format ready to repeatedly parse lines against.
type Parser struct {
	cfg Config

	prefix string
	tokens []token

	dateLayout string
	timeLayout string
	combinedLayout string // for %x, Open Questions resolution
	dateSpaces int
	combinedSpaces int
}

// New compiles cfg's format strings. It returns an error for a structurally
// invalid log format or an empty date/time format, since an unparseable
// user-supplied format is a fatal condition at startup.
func New(cfg Config) (*Parser, error) {
	if cfg.LogFormat == "" {
		return nil, errors.New("logparser: empty log format")
	}
	if cfg.DateFormat == "" || cfg.TimeFormat == "" {
		return nil, errors.New("logparser: empty date or time format")
	}
	prefix, tokens, err := compile(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	p := &Parser{
		cfg: cfg,
		prefix: prefix,
		tokens: tokens,
	}
	if cfg.DateFormat != "" {
		p.dateLayout = timefmt.ToLayout(cfg.DateFormat)
		p.dateSpaces = timefmt.SpaceCount(cfg.DateFormat)
	}
	if cfg.TimeFormat != "" {
		p.timeLayout = timefmt.ToLayout(cfg.TimeFormat)
	}
	if cfg.DateFormat != "" && cfg.TimeFormat != "" {
		p.combinedLayout = timefmt.ToLayout(cfg.DateFormat + " " + cfg.TimeFormat)
		p.combinedSpaces = timefmt.SpaceCount(cfg.DateFormat) + timefmt.SpaceCount(cfg.TimeFormat) + 1
	}
	return p, nil
}

// VerifyFormat reports whether format compiles, without needing a live
// Parser. Used by the interactive configuration dialog contract.
func VerifyFormat(format string) error {
	return verifyFormat(format)
}

// DirectiveSet compiles format and returns the set of directive characters
// it uses, keyed by the directive letter (e.g. 'b', 'D'). Callers use this
// to tell whether a format captures a given field (bandwidth, serve time)
// without duplicating the tokenizer.
func DirectiveSet(format string) (map[byte]bool, error) {
	_, tokens, err := compile(format)
	if err != nil {
		return nil, err
	}
	set := make(map[byte]bool, len(tokens))
	for _, tok := range tokens {
		set[tok.directive] = true
	}
	return set, nil
}

// Parse parses one raw input line into a record.Entry. Empty lines and
// lines starting with '#' return ErrSkipLine and must not be counted as
// invalid.
func (p *Parser) Parse(line string) (*record.Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, ErrSkipLine
	}

	rest := line
	if p.prefix != "" {
		if !strings.HasPrefix(rest, p.prefix) {
			return nil, fmt.Errorf("%w: missing literal prefix %q", ErrInvalidLine, p.prefix)
		}
		rest = rest[len(p.prefix):]
	}

	e := &record.Entry{}
	var haveHost, haveDate, haveReq bool

	for _, tok := range p.tokens {
		value, remainder, err := p.extractToken(tok, rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLine, err)
		}
		rest = remainder

		switch tok.directive {
		case '^':
			// discard
		case 'h':
			kind, err := classifyIP(value)
			if err != nil {
				return nil, fmt.Errorf("%w: host %q: %v", ErrInvalidLine, value, err)
			}
			e.Host = value
			e.IPKind = kind
			haveHost = true
		case 'd':
			canon, err := p.canonicalDate(value)
			if err != nil {
				return nil, fmt.Errorf("%w: date %q: %v", ErrInvalidLine, value, err)
			}
			e.Date = canon
			haveDate = true
		case 't':
			canon, err := p.canonicalTime(value)
			if err != nil {
				return nil, fmt.Errorf("%w: time %q: %v", ErrInvalidLine, value, err)
			}
			e.Time = canon
		case 'x':
			d, t, err := p.canonicalCombined(value)
			if err != nil {
				return nil, fmt.Errorf("%w: timestamp %q: %v", ErrInvalidLine, value, err)
			}
			e.Date, e.Time = d, t
			haveDate = true
		case 'r':
			method, uri, proto, err := parseRequestLine(value)
			if err != nil {
				return nil, fmt.Errorf("%w: request %q: %v", ErrInvalidLine, value, err)
			}
			if err := p.setRequestFields(e, method, uri, proto); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidLine, err)
			}
			haveReq = true
		case 'm':
			m := strings.ToUpper(value)
			if !validMethods[m] {
				return nil, fmt.Errorf("%w: invalid method %q", ErrInvalidLine, value)
			}
			e.Method = m
		case 'U':
			e.RequestPath = p.decodePath(value)
			haveReq = true
		case 'H':
			proto := strings.ToUpper(value)
			if !validProtocols[proto] {
				return nil, fmt.Errorf("%w: invalid protocol %q", ErrInvalidLine, value)
			}
			e.Protocol = proto
		case 's':
			if _, err := strconv.Atoi(value); err != nil {
				return nil, fmt.Errorf("%w: status %q not an integer", ErrInvalidLine, value)
			}
			e.Status = value
		case 'b':
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bytes %q: %v", ErrInvalidLine, value, err)
			}
			e.RespSize = n
		case 'R':
			e.ReferrerURL = decodeURL(value, p.cfg.DoubleDecode)
			e.ReferrerSite = extractSite(e.ReferrerURL)
			if kp, ok := extractKeyphrase(e.ReferrerURL); ok {
				e.Keyphrase = kp
			}
		case 'u':
			e.UserAgent = deblank(decodeURL(value, p.cfg.DoubleDecode))
		case 'D':
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: serve time %q: %v", ErrInvalidLine, value, err)
			}
			e.ServeTimeUS = n
		case 'T':
			secs, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: serve seconds %q: %v", ErrInvalidLine, value, err)
			}
			e.ServeTimeUS = uint64(secs * 1e6)
		case 'L':
			ms, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: serve millis %q: %v", ErrInvalidLine, value, err)
			}
			e.ServeTimeUS = uint64(ms * 1e3)
		}
	}

	if !haveHost || !haveDate || !haveReq {
		return nil, fmt.Errorf("%w: missing required field(s)", ErrInvalidLine)
	}

	e.IsStatic = classify.IsStatic(e.RequestPath, p.cfg.StaticExtensions)
	e.Is404 = classify.Is404(e.Status, p.cfg.Code444AsNotFound)

	return e, nil
}

// extractToken pulls tok's token text out of rest, using the (possibly
// multi-occurrence, for %d) delimiter-scan rule of , then verifies
// and strips the directive's trailing literal text.
func (p *Parser) extractToken(tok token, rest string) (value, remainder string, err error) {
	if !tok.hasDelim {
		return rest, "", nil
	}
	n := 1
	if tok.directive == 'd' {
		n = p.dateSpaces + 1
	} else if tok.directive == 'x' {
		n = p.combinedSpaces
	}
	idx := findDelimiter(rest, tok.delim, n)
	value = strings.TrimSpace(rest[:idx])
	remainder = rest
	if idx < len(rest) {
		remainder = rest[idx+1:] // skip the delimiter byte itself
	} else {
		remainder = ""
	}
	if tok.trailing != "" {
		if !strings.HasPrefix(remainder, tok.trailing) {
			return "", "", fmt.Errorf("directive %%%c: expected %q after delimiter", tok.directive, tok.trailing)
		}
		remainder = remainder[len(tok.trailing):]
	}
	return value, remainder, nil
}

func (p *Parser) setRequestFields(e *record.Entry, method, uri, proto string) error {
	if method != "" {
		m := strings.ToUpper(method)
		if !validMethods[m] {
			return fmt.Errorf("invalid method %q", method)
		}
		e.Method = m
	}
	e.RequestPath = p.decodePath(uri)
	if proto != "" {
		pr := strings.ToUpper(proto)
		if !validProtocols[pr] {
			return fmt.Errorf("invalid protocol %q", proto)
		}
		e.Protocol = pr
	}
	return nil
}

func (p *Parser) decodePath(raw string) string {
	decoded := decodeURL(raw, p.cfg.DoubleDecode)
	if p.cfg.IgnoreQueryString {
		if i := strings.IndexByte(decoded, '?'); i >= 0 {
			decoded = decoded[:i]
		}
	}
	return decoded
}

func (p *Parser) canonicalDate(raw string) (string, error) {
	if p.dateLayout == "" {
		return "", errors.New("no date format configured")
	}
	t, err := time.Parse(p.dateLayout, raw)
	if err != nil {
		return "", err
	}
	return t.Format(timefmt.CanonicalDateLayout), nil
}

func (p *Parser) canonicalTime(raw string) (string, error) {
	if p.timeLayout == "" {
		return "", errors.New("no time format configured")
	}
	t, err := time.Parse(p.timeLayout, raw)
	if err != nil {
		return "", err
	}
	return t.Format("15"), nil
}

// canonicalCombined implements the Open Questions resolution for
// %x: equivalent to %d then %t parsed from the same bytes, modeled as a
// single combined layout (dateLayout + " " + timeLayout).
func (p *Parser) canonicalCombined(raw string) (date, hour string, err error) {
	if p.combinedLayout == "" {
		return "", "", errors.New("no combined date/time format configured")
	}
	t, err := time.Parse(p.combinedLayout, raw)
	if err != nil {
		return "", "", err
	}
	return t.Format(timefmt.CanonicalDateLayout), t.Format("15"), nil
}

func classifyIP(host string) (record.IPKind, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		return record.IPInvalid, errors.New("not a valid IP address")
	}
	if ip.To4() != nil {
		return record.IPv4, nil
	}
	return record.IPv6, nil
}

// parseRequestLine decomposes "METHOD URI PROTOCOL" (%r).
func parseRequestLine(line string) (method, uri, protocol string, err error) {
	parts := strings.Fields(line)
	switch len(parts) {
	case 3:
		return parts[0], parts[1], parts[2], nil
	case 1:
		// no recognizable method: fall back to treating the whole line as
		// the raw request target.
		return "", parts[0], "", nil
	default:
		return "", "", "", fmt.Errorf("malformed request line %q", line)
	}
}

// decodeURL percent-decodes s, optionally twice (double_decode),
// and strips embedded newlines.
func decodeURL(s string, double bool) string {
	out := percentDecode(s)
	if double {
		out = percentDecode(out)
	}
	out = strings.ReplaceAll(out, "\n", "")
	out = strings.ReplaceAll(out, "\r", "")
	return strings.TrimSpace(out)
}

// percentDecode decodes %XX hex escapes only. Unlike url.QueryUnescape it
// leaves '+' untouched: generic percent-decoding and the +-to-space rule
// are separate steps, and the latter only applies to the user agent and
// the extracted keyphrase.
func percentDecode(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, hiOK := hexDigit(s[i+1])
			lo, loOK := hexDigit(s[i+2])
			if hiOK && loOK {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// deblank replaces '+' with space in a decoded user agent string (// Normalization: "User agents additionally replace + with space").
func deblank(s string) string {
	return strings.ReplaceAll(s, "+", " ")
}

// extractSite extracts the authority from a URL: between "//" and the next
// "/" or end of string (Referrer-derived fields).
func extractSite(referrer string) string {
	i := strings.Index(referrer, "//")
	if i < 0 {
		return ""
	}
	rest := referrer[i+2:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	const maxSiteLen = 255
	if len(rest) > maxSiteLen {
		rest = rest[:maxSiteLen]
	}
	return rest
}

var googleHostMarkers = []string{"google.", "www.google", "webcache.googleusercontent"}

// extractKeyphrase extracts the search query term from a Google
// search/cache/translate referrer URL (Referrer-derived fields).
func extractKeyphrase(referrer string) (string, bool) {
	site := extractSite(referrer)
	isGoogle := false
	for _, m := range googleHostMarkers {
		if strings.Contains(site, m) {
			isGoogle = true
			break
		}
	}
	if !isGoogle {
		return "", false
	}

	qi := strings.IndexByte(referrer, '?')
	if qi < 0 {
		return "", false
	}
	values, err := url.ParseQuery(referrer[qi+1:])
	if err != nil {
		return "", false
	}
	q := values.Get("q")
	if q == "" {
		return "", false
	}
	q = strings.ReplaceAll(q, "+", " ")
	q = strings.TrimSpace(q)
	if q == "" {
		return "", false
	}
	return q, true
}
