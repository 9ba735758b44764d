/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package logparser

import (
	"fmt"
	"strings"
)

// item is one piece of a tokenized format string: either a literal run of
// bytes or a single directive spec character.
type item struct {
	isDirective bool
	directive byte
	literal string
}

// token is a compiled directive plus the literal text that follows it up to
// the next directive (or end of format). Delim is the first byte of that
// literal text — the character the parser scans the input for to delimit
// the directive's token (Token extraction); Trailing is the
// remaining literal bytes, which must match the input exactly once Delim is
// found.
type token struct {
	directive byte
	hasDelim bool
	delim byte
	trailing string
}

// compile breaks a log format string into a literal prefix (matched at the
// very start of every line) plus an ordered list of directive tokens.
func compile(format string) (prefix string, tokens []token, err error) {
	items, err := tokenize(format)
	if err != nil {
		return "", nil, err
	}

	idx := 0
	if len(items) > 0 && !items[0].isDirective {
		prefix = items[0].literal
		idx = 1
	}

	for idx < len(items) {
		it := items[idx]
		if !it.isDirective {
			return "", nil, fmt.Errorf("logparser: unexpected literal run %q in format", it.literal)
		}
		tok := token{directive: it.directive}
		idx++
		if idx < len(items) {
			lit := items[idx]
			if lit.isDirective {
				return "", nil, fmt.Errorf("logparser: directives %%%c and %%%c have no separating literal", tok.directive, lit.directive)
			}
			if lit.literal == "" {
				return "", nil, fmt.Errorf("logparser: empty literal after directive %%%c", tok.directive)
			}
			tok.hasDelim = true
			tok.delim = lit.literal[0]
			tok.trailing = lit.literal[1:]
			idx++
		}
		tokens = append(tokens, tok)
	}
	return prefix, tokens, nil
}

func tokenize(format string) ([]item, error) {
	var raw []item
	i := 0
	for i < len(format) {
		if format[i] == '%' {
			if i+1 >= len(format) {
				return nil, fmt.Errorf("logparser: dangling %% at end of format")
			}
			c := format[i+1]
			switch {
			case c == '%':
				raw = append(raw, item{literal: "%"})
			case isKnownDirective(c):
				raw = append(raw, item{isDirective: true, directive: c})
			default:
				// Unknown directives are treated as literal text, not
				// silently ignored (Format-string safety).
				raw = append(raw, item{literal: "%" + string(c)})
			}
			i += 2
			continue
		}
		start := i
		for i < len(format) && format[i] != '%' {
			i++
		}
		raw = append(raw, item{literal: format[start:i]})
	}
	return mergeLiterals(raw), nil
}

// mergeLiterals folds adjacent literal items (produced when %% sits next to
// a literal run) into single literal items so the rest of compile can
// assume strict directive/literal alternation.
func mergeLiterals(raw []item) []item {
	var out []item
	for _, it := range raw {
		if !it.isDirective && len(out) > 0 && !out[len(out)-1].isDirective {
			out[len(out)-1].literal += it.literal
			continue
		}
		out = append(out, it)
	}
	return out
}

// findDelimiter returns the index in s of the nth unescaped occurrence of
// delim, or len(s) if fewer than n occurrences exist. Escaped delimiters
// "\X" count as two consumed bytes and are never a boundary; a directive
// whose delimiter never appears simply consumes the rest of the line.
func findDelimiter(s string, delim byte, n int) int {
	count := 0
	i := 0
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) {
			i += 2
			continue
		}
		if s[i] == delim {
			count++
			if count == n {
				return i
			}
		}
		i++
	}
	return len(s)
}

// verifyFormat does a cheap structural check used by the interactive
// configuration dialog contract (User-visible failures): it
// compiles without attempting to match any input.
func verifyFormat(format string) error {
	_, _, err := compile(format)
	return err
}

// knownDirectives lists every recognized spec character, for documentation and
// for the config-validation dialog contract.
var knownDirectives = "hdtxrmUHsbRuDTL^"

func isKnownDirective(c byte) bool {
	return strings.IndexByte(knownDirectives, c) >= 0
}
