// Package queue implements the pending-article queue: an ordered list of
// discovered stubs, a wrap-around cursor for round-robin processing, and the
// set of URLs that have already been processed. Processed-set membership is
// keyed on a normalized form of the URL so that scheme, port, and
// tracking-parameter variants of the same article dedup together.
package queue

import (
	"sync"

	"github.com/jonesrussell/goread/internal/domain"
)

// PendingQueue holds discovered-but-unprocessed article stubs. Items are
// never removed on failure; only MarkProcessed retires a URL, so failing
// items are retried on the next full cycle of the cursor. All methods are
// safe for concurrent use.
type PendingQueue struct {
	mu        sync.Mutex
	stubs     []domain.ArticleStub
	cursor    int
	processed map[string]struct{}
}

// NewPendingQueue creates an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{
		processed: make(map[string]struct{}),
	}
}

// Append adds a stub unless its URL is already processed. The check is
// best-effort; Next callers re-check since the processed set may grow between
// append and pop. Returns whether the stub was added.
func (q *PendingQueue) Append(stub domain.ArticleStub) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, done := q.processed[identityKey(stub.URL)]; done {
		return false
	}
	q.stubs = append(q.stubs, stub)
	return true
}

// Next returns the stub at the cursor and advances it, wrapping to the start
// after the last item. Returns false when the queue is empty.
func (q *PendingQueue) Next() (domain.ArticleStub, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.stubs) == 0 {
		return domain.ArticleStub{}, false
	}
	if q.cursor >= len(q.stubs) {
		q.cursor = 0
	}
	stub := q.stubs[q.cursor]
	q.cursor++
	if q.cursor >= len(q.stubs) {
		q.cursor = 0
	}
	return stub, true
}

// MarkProcessed records that a URL has been successfully extracted and
// stored. The stub stays in the queue; the processed set is what prevents it
// from being handled again.
func (q *PendingQueue) MarkProcessed(url string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processed[identityKey(url)] = struct{}{}
}

// IsProcessed reports whether a URL has already been processed.
func (q *PendingQueue) IsProcessed(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, done := q.processed[identityKey(url)]
	return done
}

// Clear atomically resets the queue, cursor, and processed set.
func (q *PendingQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stubs = nil
	q.cursor = 0
	q.processed = make(map[string]struct{})
}

// Size returns the number of queued stubs, including processed ones that
// have not been cleared.
func (q *PendingQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.stubs)
}

// ProcessedCount returns the number of processed URLs.
func (q *PendingQueue) ProcessedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.processed)
}

// Cursor returns the current cursor position.
func (q *PendingQueue) Cursor() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cursor
}
