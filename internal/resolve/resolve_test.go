package resolve

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueInsertsPlaceholderAndSuppressesDuplicates(t *testing.T) {
	r := New("127.0.0.1:1")

	r.Enqueue("203.0.113.4")
	r.mu.Lock()
	_, cached := r.cache["203.0.113.4"]
	qlen := len(r.queue)
	r.mu.Unlock()
	assert.True(t, cached)
	assert.Equal(t, 1, qlen)

	// duplicate enqueue while still pending must not grow the queue
	r.Enqueue("203.0.113.4")
	r.mu.Lock()
	qlen = len(r.queue)
	r.mu.Unlock()
	assert.Equal(t, 1, qlen)
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	r := New("127.0.0.1:1")
	for i := 0; i < QueueCapacity; i++ {
		r.Enqueue(uniqueIP(i))
	}
	r.mu.Lock()
	full := len(r.queue)
	r.mu.Unlock()
	require.Equal(t, QueueCapacity, full)

	r.Enqueue("198.51.100.9")
	r.mu.Lock()
	after := len(r.queue)
	_, cached := r.cache["198.51.100.9"]
	r.mu.Unlock()
	assert.Equal(t, QueueCapacity, after)
	assert.False(t, cached)
}

func TestEnqueueRejectsOversizedEntry(t *testing.T) {
	r := New("127.0.0.1:1")
	huge := strings.Repeat("1", MaxEntryLen+1)
	r.Enqueue(huge)
	r.mu.Lock()
	qlen := len(r.queue)
	r.mu.Unlock()
	assert.Equal(t, 0, qlen)
}

func TestLookupReportsUnresolvedForPlaceholder(t *testing.T) {
	r := New("127.0.0.1:1")
	r.Enqueue("203.0.113.4")

	name, ok := r.Lookup("203.0.113.4")
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestLookupMissReportsUnresolved(t *testing.T) {
	r := New("127.0.0.1:1")
	name, ok := r.Lookup("203.0.113.99")
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestWorkerResolvesQueuedEntry(t *testing.T) {
	// 127.0.0.1:1 refuses connections immediately, so the worker's lookup
	// fails fast and the failure string is cached.
	r := New("127.0.0.1:1")
	r.Start()
	defer r.Shutdown()

	r.Enqueue("203.0.113.4")

	require.Eventually(t, func () bool {
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.cache["203.0.113.4"] != ""
		}, 2*time.Second, 10*time.Millisecond)

	name, ok := r.Lookup("203.0.113.4")
	assert.True(t, ok)
	assert.NotEmpty(t, name)
}

func TestShutdownStopsWorkerEvenWhenQueueEmpty(t *testing.T) {
	r := New("127.0.0.1:1")
	r.Start()

	done := make(chan struct{})
	go func() {
		r.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return; worker stuck waiting on notEmpty")
	}
}

func TestShutdownDiscardsInFlightResult(t *testing.T) {
	r := New("127.0.0.1:1")
	r.Start()
	r.Enqueue("203.0.113.4")
	r.Shutdown()

	r.mu.Lock()
	_, resolved := r.cache["203.0.113.4"]
	r.mu.Unlock()
	// the placeholder may or may not have been overwritten depending on
	// whether the worker reached the lookup before shutdown; either way
	// the resolver must not block or panic on a post-shutdown read.
	_ = resolved
	name, ok := r.Lookup("203.0.113.4")
	if ok {
		assert.NotEmpty(t, name)
	}
}

func uniqueIP(i int) string {
	a := (i >> 16) & 0xff
	b := (i >> 8) & 0xff
	c := i & 0xff
	return "10." + itoa(a) + "." + itoa(b) + "." + itoa(c)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}
