package logparser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clfConfig() Config {
	return Config{
		LogFormat: `%h %^ %^ [%d:%t %^] "%r" %s %b`,
		DateFormat: `%d/%b/%Y`,
		TimeFormat: `%H:%M:%S`,
	}
}

// Scenario 1 — single CLF line.
func TestParseScenario1SingleCLFLine(t *testing.T) {
	p, err := New(clfConfig())
	require.NoError(t, err)

	e, err := p.Parse(`1.2.3.4 - - [15/Jul/2015:12:34:56 +0000] "GET /index.html HTTP/1.1" 200 1024`)
	require.NoError(t, err)

	assert.Equal(t, "1.2.3.4", e.Host)
	assert.Equal(t, "20150715", e.Date)
	assert.Equal(t, "12", e.Time)
	assert.Equal(t, "GET", e.Method)
	assert.Equal(t, "/index.html", e.RequestPath)
	assert.Equal(t, "HTTP/1.1", e.Protocol)
	assert.Equal(t, "200", e.Status)
	assert.Equal(t, uint64(1024), e.RespSize)
	assert.False(t, e.Is404)
}

// Scenario 3 — invalid protocol.
func TestParseScenario3InvalidProtocol(t *testing.T) {
	p, err := New(clfConfig())
	require.NoError(t, err)

	_, err = p.Parse(`1.2.3.4 - - [15/Jul/2015:12:34:56 +0000] "GET / HTTP/2.0" 200 0`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidLine))
}

// Scenario 4 — static file detection.
func TestParseScenario4StaticFile(t *testing.T) {
	cfg := clfConfig()
	cfg.StaticExtensions = []string{".css", ".js"}
	p, err := New(cfg)
	require.NoError(t, err)

	e, err := p.Parse(`1.2.3.4 - - [15/Jul/2015:12:34:56 +0000] "GET /style.css HTTP/1.1" 200 100`)
	require.NoError(t, err)
	assert.True(t, e.IsStatic)
}

// Scenario 5 — referrer keyphrase, parsed via a format carrying %R.
func TestParseScenario5Keyphrase(t *testing.T) {
	cfg := Config{
		LogFormat: `%h %^ %^ [%d:%t %^] "%r" %s %b "%R" "%u"`,
		DateFormat: `%d/%b/%Y`,
		TimeFormat: `%H:%M:%S`,
	}
	p, err := New(cfg)
	require.NoError(t, err)

	line := `1.2.3.4 - - [15/Jul/2015:12:34:56 +0000] "GET /index.html HTTP/1.1" 200 1024 "http://www.google.com/search?q=hello+world" "Mozilla/5.0"`
	e, err := p.Parse(line)
	require.NoError(t, err)

	assert.Equal(t, "www.google.com", e.ReferrerSite)
	assert.Equal(t, "hello world", e.Keyphrase)
}

func TestParseSkipsEmptyAndCommentLines(t *testing.T) {
	p, err := New(clfConfig())
	require.NoError(t, err)

	_, err = p.Parse("")
	assert.ErrorIs(t, err, ErrSkipLine)

	_, err = p.Parse("# a comment")
	assert.ErrorIs(t, err, ErrSkipLine)
}

func TestParseRejectsInvalidHost(t *testing.T) {
	p, err := New(clfConfig())
	require.NoError(t, err)

	_, err = p.Parse(`not-an-ip - - [15/Jul/2015:12:34:56 +0000] "GET / HTTP/1.1" 200 0`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidLine))
}

func TestParseIPv6Host(t *testing.T) {
	p, err := New(clfConfig())
	require.NoError(t, err)

	e, err := p.Parse(`::1 - - [15/Jul/2015:12:34:56 +0000] "GET / HTTP/1.1" 200 0`)
	require.NoError(t, err)
	assert.Equal(t, "::1", e.Host)
}

func TestRequestPathKeepsLiteralPlus(t *testing.T) {
	p, err := New(clfConfig())
	require.NoError(t, err)

	e, err := p.Parse(`1.2.3.4 - - [15/Jul/2015:12:34:56 +0000] "GET /a+b%2Bc HTTP/1.1" 200 0`)
	require.NoError(t, err)
	assert.Equal(t, "/a+b+c", e.RequestPath, "percent-decoding a path must not turn + into a space")
}

func TestIgnoreQueryString(t *testing.T) {
	cfg := clfConfig()
	cfg.IgnoreQueryString = true
	p, err := New(cfg)
	require.NoError(t, err)

	e, err := p.Parse(`1.2.3.4 - - [15/Jul/2015:12:34:56 +0000] "GET /index.html?a=1 HTTP/1.1" 200 0`)
	require.NoError(t, err)
	assert.Equal(t, "/index.html", e.RequestPath)
}

func TestSpaceDelimitedDateConsumesNWords(t *testing.T) {
	// syslog-style date "Jul 15" inside a format with a two-word date format.
	cfg := Config{
		LogFormat: `%h [%d %t] "%r" %s %b`,
		DateFormat: `%b %d`,
		TimeFormat: `%H:%M:%S`,
	}
	p, err := New(cfg)
	require.NoError(t, err)

	e, err := p.Parse(`1.2.3.4 [Jul 15 12:34:56] "GET / HTTP/1.1" 200 0`)
	require.NoError(t, err)
	assert.Equal(t, "12", e.Time)
	assert.NotEmpty(t, e.Date)
}
