/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package resolve implements the asynchronous reverse-DNS resolver that
// cooperates with the holder's hosts module. A fixed-capacity
// ring buffer of pending IP strings feeds a single background worker; a
// mutex with two condition variables ("not empty", "not full") guards both
// the queue and the hostname cache, matching the specified concurrency
// discipline.
package resolve

import (
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// QueueCapacity bounds the number of pending lookups the ring buffer holds.
const QueueCapacity = 400

// MaxEntryLen bounds the length of a single queued IP string.
const MaxEntryLen = 1025

const lookupTimeout = 2 * time.Second

// Resolver is the producer/consumer reverse-DNS pipeline: Enqueue and
// Lookup may be called from any thread (typically the aggregator or
// holder); a single background goroutine drains the queue.
type Resolver struct {
	mu sync.Mutex
	notEmpty *sync.Cond
	notFull *sync.Cond

	queue []string
	cache map[string]string
	active bool

	dnsServer string
	done chan struct{}
}

// New builds a Resolver. dnsServer, if non-empty, is used instead of the
// system resolver (host:port, e.g. "8.8.8.8:53").
func New(dnsServer string) *Resolver {
	r := &Resolver{
		cache: make(map[string]string),
		active: true,
		dnsServer: dnsServer,
		done: make(chan struct{}),
	}
	r.notEmpty = sync.NewCond(&r.mu)
	r.notFull = sync.NewCond(&r.mu)
	return r
}

// Start launches the single background worker goroutine (// "Worker"). Start must be called at most once.
func (r *Resolver) Start() {
	go r.workerLoop()
}

// Shutdown sets the shared active flag false and broadcasts both
// conditions, then waits for the worker to exit ("Cancellation and
// timeouts"). A lookup already in flight is allowed to return from the OS
// call and is then discarded without writing to the cache.
func (r *Resolver) Shutdown() {
	r.mu.Lock()
	r.active = false
	r.notEmpty.Broadcast()
	r.notFull.Broadcast()
	r.mu.Unlock()
	<-r.done
}

// Lookup returns the cached hostname for ip, if one has been resolved (or
// attempted). A placeholder inserted by Enqueue reads back as "", false,
// the same as an address that was never enqueued: a pending lookup is
// reported as not yet resolved. A failed lookup caches its error string,
// which reads back as that string and true.
func (r *Resolver) Lookup(ip string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.cache[ip]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Wake broadcasts "queue not empty" without enqueueing anything, so the
// worker rechecks the queue if it was already awake or about to sleep. The
// tail follower calls this after every tick in which new hosts may have
// been enqueued.
func (r *Resolver) Wake() {
	r.mu.Lock()
	r.notEmpty.Broadcast()
	r.mu.Unlock()
}

// Enqueue appends ip to the pending queue unless it is already cached,
// already queued, too long, or the queue is full.
// Enqueue never blocks: a full queue silently drops the request.
func (r *Resolver) Enqueue(ip string) {
	if len(ip) > MaxEntryLen {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, cached := r.cache[ip]; cached {
		return
	}
	if len(r.queue) >= QueueCapacity {
		return
	}

	r.cache[ip] = "" // placeholder suppresses duplicate enqueues
	r.queue = append(r.queue, ip)
	r.notEmpty.Broadcast()
}

func (r *Resolver) workerLoop() {
	defer close(r.done)
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && r.active {
			r.notEmpty.Wait()
		}
		if len(r.queue) == 0 && !r.active {
			r.mu.Unlock()
			return
		}
		ip := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		hostname := r.reverseLookup(ip)

		r.mu.Lock()
		if !r.active {
			r.mu.Unlock()
			return
		}
		r.cache[ip] = hostname
		r.notFull.Broadcast()
		r.mu.Unlock()
	}
}

// reverseLookup performs a PTR query for ip, distinguishing IPv4 from IPv6
// address families; dns.ReverseAddr builds the right in-addr.arpa/ip6.arpa
// name for either family. On failure the error string is returned as the
// cached value.
func (r *Resolver) reverseLookup(ip string) string {
	name, err := dns.ReverseAddr(ip)
	if err != nil {
		return err.Error()
	}

	m := new(dns.Msg)
	m.SetQuestion(name, dns.TypePTR)
	m.RecursionDesired = true

	client := &dns.Client{Timeout: lookupTimeout}
	server := r.dnsServer
	if server == "" {
		server = systemResolver()
	}

	resp, _, err := client.Exchange(m, server)
	if err != nil {
		return err.Error()
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, ".")
		}
	}
	return "no PTR record"
}

// systemResolver reads the first nameserver out of /etc/resolv.conf,
// falling back to a public resolver when the file cannot be read or lists
// no nameserver. Reachability of the chosen server is not checked.
func systemResolver() string {
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
		return net.JoinHostPort(conf.Servers[0], conf.Port)
	}
	return "8.8.8.8:53"
}
