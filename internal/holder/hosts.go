/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

package holder

import "github.com/gravwell/logstat/internal/geo"

// HostnameResolver is the subset of the DNS resolver the holder needs: a
// non-blocking cache lookup, plus the ability to enqueue a miss for
// background resolution.
type HostnameResolver interface {
	Lookup(host string) (hostname string, ok bool)
	Enqueue(host string)
}

// AttachHostSubItems appends country/city/hostname children to each item in
// hosts, sourced from geoLookup and dns: one child each for country, city,
// and the resolved hostname. Either dependency may be nil, in which case
// that sub-item kind is simply omitted.
func AttachHostSubItems(hosts []*Item, geoLookup geo.Resolver, dns HostnameResolver) {
	for _, item := range hosts {
		host := item.Data

		if geoLookup != nil {
			if loc, ok := geoLookup.Lookup(host); ok {
				if loc.Country != "" {
					item.SubItems = append(item.SubItems, &Item{Data: "country: " + loc.Country})
				}
				if loc.City != "" {
					item.SubItems = append(item.SubItems, &Item{Data: "city: " + loc.City})
				}
			}
		}

		if dns != nil {
			if name, ok := dns.Lookup(host); ok {
				item.SubItems = append(item.SubItems, &Item{Data: "hostname: " + name})
			} else {
				dns.Enqueue(host)
			}
		}
	}
}
