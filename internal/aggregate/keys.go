/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package aggregate

import (
	"strings"

	"github.com/gravwell/logstat/internal/classify"
	"github.com/gravwell/logstat/internal/metricstore"
	"github.com/gravwell/logstat/internal/record"
)

// keyData is one module's extracted (data, root) pair: dataKey/rootKey are
// the interning keys (which may differ from the displayed data/root when
// method/protocol are appended), data/root are the human-readable strings
// stored in datamap/rootmap.
type keyData struct {
	dataKey string
	data string
	rootKey string
	root string
	hasRoot bool
}

// moduleSpec binds a module to its key extractor and records whether the
// module stores method/protocol strings. Every module records hits,
// visitors, bandwidth and serve time; agents are recorded for Hosts only.
type moduleSpec struct {
	module metricstore.Module
	extract func(e *record.Entry, cfg Config) (keyData, bool)
	tracksMethodProtocol bool
}

func requestKeyData(e *record.Entry, cfg Config) keyData {
	key := e.RequestPath
	if cfg.AppendMethod && e.Method != "" {
		key += "|" + e.Method
	}
	if cfg.AppendProtocol && e.Protocol != "" {
		key += "|" + e.Protocol
	}
	return keyData{dataKey: key, data: e.RequestPath}
}

func referrerSiteIgnored(e *record.Entry, cfg Config) bool {
	if e.ReferrerSite == "" {
		return false
	}
	for _, needle := range cfg.IgnoredReferrers {
		if strings.Contains(e.ReferrerSite, needle) {
			return true
		}
	}
	return false
}

var moduleSpecs = []moduleSpec{
	{
		module: metricstore.Visitors,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.Date == "" {
				return keyData{}, false
			}
			return keyData{dataKey: e.Date, data: e.Date}, true
		},
	},
	{
		module: metricstore.Requests,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.RequestPath == "" || e.Is404 || e.IsStatic {
				return keyData{}, false
			}
			return requestKeyData(e, cfg), true
		},
		tracksMethodProtocol: true,
	},
	{
		module: metricstore.RequestsStatic,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.RequestPath == "" || !e.IsStatic {
				return keyData{}, false
			}
			return requestKeyData(e, cfg), true
		},
		tracksMethodProtocol: true,
	},
	{
		module: metricstore.NotFound,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.RequestPath == "" || !e.Is404 {
				return keyData{}, false
			}
			return requestKeyData(e, cfg), true
		},
		tracksMethodProtocol: true,
	},
	{
		module: metricstore.Hosts,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.Host == "" {
				return keyData{}, false
			}
			return keyData{dataKey: e.Host, data: e.Host}, true
		},
	},
	{
		module: metricstore.OS,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.UserAgent == "" {
				return keyData{}, false
			}
			pair := classify.OS(e.UserAgent, cfg.RealOS)
			return keyData{
				dataKey: pair.Name, data: pair.Name,
				rootKey: pair.Family, root: pair.Family, hasRoot: true,
			}, true
		},
		tracksMethodProtocol: true,
	},
	{
		module: metricstore.Browsers,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.UserAgent == "" {
				return keyData{}, false
			}
			pair := classify.Browser(e.UserAgent)
			return keyData{
				dataKey: pair.Name, data: pair.Name,
				rootKey: pair.Family, root: pair.Family, hasRoot: true,
			}, true
		},
	},
	{
		module: metricstore.Referrers,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.ReferrerURL == "" || referrerSiteIgnored(e, cfg) {
				return keyData{}, false
			}
			return keyData{dataKey: e.ReferrerURL, data: e.ReferrerURL}, true
		},
	},
	{
		module: metricstore.ReferringSites,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.ReferrerSite == "" || referrerSiteIgnored(e, cfg) {
				return keyData{}, false
			}
			return keyData{dataKey: e.ReferrerSite, data: e.ReferrerSite}, true
		},
	},
	{
		module: metricstore.Keyphrases,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.Keyphrase == "" || referrerSiteIgnored(e, cfg) {
				return keyData{}, false
			}
			return keyData{dataKey: e.Keyphrase, data: e.Keyphrase}, true
		},
	},
	{
		module: metricstore.GeoLocation,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if cfg.GeoLookup == nil || e.Host == "" {
				return keyData{}, false
			}
			loc, ok := cfg.GeoLookup.Lookup(e.Host)
			if !ok || loc.Country == "" {
				return keyData{}, false
			}
			return keyData{
				dataKey: loc.Country, data: loc.Country,
				rootKey: loc.Continent, root: loc.Continent, hasRoot: loc.Continent != "",
			}, true
		},
	},
	{
		module: metricstore.StatusCodes,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.Status == "" {
				return keyData{}, false
			}
			label, class := classify.StatusClass(e.Status)
			return keyData{
				dataKey: label, data: label,
				rootKey: class, root: class, hasRoot: class != "",
			}, true
		},
	},
	{
		module: metricstore.VisitTimes,
		extract: func(e *record.Entry, cfg Config) (keyData, bool) {
			if e.Time == "" {
				return keyData{}, false
			}
			return keyData{dataKey: e.Time, data: e.Time}, true
		},
	},
}
