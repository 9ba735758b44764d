/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package config implements the configuration surface recognized by
// the core engine, loaded from a gcfg (INI-like) file with
// environment-variable overrides layered on top of the parsed struct.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/gravwell/logstat/internal/aggregate"
	"github.com/gravwell/logstat/internal/geo"
	"github.com/gravwell/logstat/internal/logparser"
	"github.com/gravwell/logstat/internal/metricstore"
)

const (
	envPrefix = `LOGSTAT_`
	envLogLevel = envPrefix + `LOG_LEVEL`
	envLogFile = envPrefix + `LOG_FILE`
	envInputPath = envPrefix + `INPUT_PATH`
	envDNSServer = envPrefix + `DNS_SERVER`
	defaultLogLevel = `ERROR`
)

var ErrInvalidLogLevel = errors.New("config: invalid log level")

// Global is the `[Global]` section of the config file, field-for-field the
// options named in plus the ambient settings (log level/file,
// input path, DNS server, run id) the rest of the program needs to start.
// Field names follow gcfg's convention: underscores in the Go name become
// hyphens in the file (e.g. Ignore_Query_String <-> "Ignore-Query-String").
type Global struct {
	Ignore_Query_String bool
	Append_Method bool
	Append_Protocol bool
	Double_Decode bool
	Code_444_As_404 bool
	Include_4xx_In_Unique bool
	Ignore_Crawlers bool
	Real_OS bool
	Enable_HTML_Resolver bool

	Static_Extensions []string
	Ignored_Panels []string
	Ignored_Referers []string
	Excluded_IPs []string

	Log_Format string
	Date_Format string
	Time_Format string

	Log_Level string
	Log_File string
	Input_Path string
	DNS_Server string
	Run_ID string
}

type fileLayout struct {
	Global Global
}

// Options is the fully resolved, validated configuration: the gcfg file
// contents plus environment overrides plus defaults.
type Options struct {
	Global

	path string // empty if loaded from bytes/defaults rather than a file
}

// Default returns an Options with every boolean at its documented default
// (all off) and Log_Level at its default, without reading any file or
// environment variable.
func Default() *Options {
	return &Options{Global: Global{Log_Level: defaultLogLevel}}
}

// Load reads path as a gcfg file, applies environment-variable overrides,
// validates, and persists a freshly minted Run_ID back into the file on
// first launch.
func Load(path string) (*Options, error) {
	var fl fileLayout
	if err := loadConfigFile(&fl, path); err != nil {
		return nil, err
	}

	o := &Options{Global: fl.Global, path: path}
	if err := o.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := o.verify(); err != nil {
		return nil, err
	}
	if err := o.ensureRunID(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Options) applyEnvOverrides() error {
	if err := LoadEnvVar(&o.Log_Level, envLogLevel, defaultLogLevel); err != nil {
		return err
	}
	if err := LoadEnvVar(&o.Log_File, envLogFile, o.Log_File); err != nil {
		return err
	}
	if err := LoadEnvVar(&o.Input_Path, envInputPath, o.Input_Path); err != nil {
		return err
	}
	return LoadEnvVar(&o.DNS_Server, envDNSServer, o.DNS_Server)
}

func (o *Options) verify() error {
	o.Log_Level = strings.ToUpper(strings.TrimSpace(o.Log_Level))
	if o.Log_Level == "" {
		o.Log_Level = defaultLogLevel
	}
	switch o.Log_Level {
	case `OFF`, `DEBUG`, `INFO`, `WARN`, `ERROR`, `CRITICAL`, `FATAL`:
	default:
		return ErrInvalidLogLevel
	}
	if o.Log_Format == "" {
		return errors.New("config: Log-Format is required")
	}
	if o.Date_Format == "" {
		return errors.New("config: Date-Format is required")
	}
	if o.Time_Format == "" {
		return errors.New("config: Time-Format is required")
	}
	return logparser.VerifyFormat(o.Log_Format)
}

// ensureRunID stamps a fresh run id on first launch and rewrites it into
// the backing config file by line surgery, rather than rewriting the whole
// file through gcfg. A config loaded without a backing file (Default, or
// LoadBytes) just mints an in-memory id without persisting it.
func (o *Options) ensureRunID() error {
	if o.Run_ID != "" {
		if _, err := uuid.Parse(o.Run_ID); err == nil {
			return nil
		}
	}
	id := uuid.New()
	o.Run_ID = id.String()
	if o.path == "" {
		return nil
	}

	content, err := os.ReadFile(o.path)
	if err != nil {
		return err
	}
	updated, err := setRunID(string(content), o.Run_ID)
	if err != nil {
		return err
	}
	return os.WriteFile(o.path, []byte(updated), 0644)
}

// ParserConfig builds the internal/logparser.Config this option set implies.
func (o *Options) ParserConfig() logparser.Config {
	return logparser.Config{
		LogFormat: o.Log_Format,
		DateFormat: o.Date_Format,
		TimeFormat: o.Time_Format,
		IgnoreQueryString: o.Ignore_Query_String,
		DoubleDecode: o.Double_Decode,
		Code444AsNotFound: o.Code_444_As_404,
		StaticExtensions: o.Static_Extensions,
	}
}

// AggregateConfig builds the internal/aggregate.Config this option set
// implies, resolving excluded-ip and ignored-panel strings into their
// typed forms.
func (o *Options) AggregateConfig(geoLookup geo.Resolver) (aggregate.Config, error) {
	directives, err := logparser.DirectiveSet(o.Log_Format)
	if err != nil {
		return aggregate.Config{}, err
	}

	cfg := aggregate.Config{
		AppendMethod: o.Append_Method,
		AppendProtocol: o.Append_Protocol,
		IgnoreCrawlers: o.Ignore_Crawlers,
		IncludeClient4xx: o.Include_4xx_In_Unique,
		RealOS: o.Real_OS,
		TracksBandwidth: directives['b'],
		TracksTime: directives['D'] || directives['T'] || directives['L'],
		IgnoredReferrers: o.Ignored_Referers,
		GeoLookup: geoLookup,
	}
	for _, s := range o.Excluded_IPs {
		rule, err := aggregate.ParseIPRule(s)
		if err != nil {
			return aggregate.Config{}, err
		}
		cfg.ExcludedIPs = append(cfg.ExcludedIPs, rule)
	}
	if len(o.Ignored_Panels) > 0 {
		cfg.IgnoredPanels = make(map[metricstore.Module]bool, len(o.Ignored_Panels))
		for _, name := range o.Ignored_Panels {
			if m, ok := metricstore.ModuleByName(name); ok {
				cfg.IgnoredPanels[m] = true
			}
		}
	}
	return cfg, nil
}
