package engine

import (
	"container/heap"
	"time"
)

// ttlItem is one entry in the expiry min-heap. seq breaks ties on deadline
// in insertion order; index is the item's current heap position, which
// SetTTL uses (after finding the item through the key index) to
// reprioritize it in place.
type ttlItem struct {
	key      string
	deadline time.Time
	seq      uint64
	index    int
}

type ttlHeap []*ttlItem

func (h ttlHeap) Len() int { return len(h) }

func (h ttlHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h ttlHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *ttlHeap) Push(x interface{}) {
	item := x.(*ttlItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *ttlHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// ExpiryHeap tracks key TTLs in a min-heap keyed on deadline, with a
// key->item index for O(log n) reprioritization.
type ExpiryHeap struct {
	h   ttlHeap
	idx map[string]*ttlItem
	seq uint64
}

func NewExpiryHeap() *ExpiryHeap {
	return &ExpiryHeap{idx: make(map[string]*ttlItem)}
}

// SetTTL sets key's deadline to now+d. d <= 0 removes any existing TTL.
func (e *ExpiryHeap) SetTTL(key string, d time.Duration, now time.Time) {
	if d <= 0 {
		e.RemoveTTL(key)
		return
	}

	deadline := now.Add(d)
	if item, ok := e.idx[key]; ok {
		item.deadline = deadline
		heap.Fix(&e.h, item.index)
		return
	}

	e.seq++
	item := &ttlItem{key: key, deadline: deadline, seq: e.seq}
	heap.Push(&e.h, item)
	e.idx[key] = item
}

// GetTTL returns the remaining seconds on key's TTL, -1 if key carries no
// TTL, or -2 if key's deadline has already elapsed but it has not yet been
// popped by Sweep.
func (e *ExpiryHeap) GetTTL(key string, now time.Time) int64 {
	item, ok := e.idx[key]
	if !ok {
		return -1
	}

	remaining := item.deadline.Sub(now)
	if remaining <= 0 {
		return -2
	}

	secs := int64(remaining / time.Second)
	if remaining%time.Second > 0 {
		secs++
	}
	return secs
}

// Rename reassigns the TTL held under from (if any) to to, preserving the
// original deadline. Any existing TTL on to is discarded. Returns false if
// from carries no TTL.
func (e *ExpiryHeap) Rename(from, to string) bool {
	item, ok := e.idx[from]
	if !ok {
		return false
	}
	e.RemoveTTL(to)
	delete(e.idx, from)
	item.key = to
	e.idx[to] = item
	return true
}

func (e *ExpiryHeap) HasTTL(key string) bool {
	_, ok := e.idx[key]
	return ok
}

func (e *ExpiryHeap) RemoveTTL(key string) bool {
	item, ok := e.idx[key]
	if !ok {
		return false
	}
	heap.Remove(&e.h, item.index)
	delete(e.idx, key)
	return true
}

// Sweep pops and returns every key whose deadline is <= now. It does not
// touch any other data structure; the caller is responsible for deleting
// the returned keys from the KV/sorted-set containers.
func (e *ExpiryHeap) Sweep(now time.Time) []string {
	var expired []string
	for e.h.Len() > 0 && !e.h[0].deadline.After(now) {
		item := heap.Pop(&e.h).(*ttlItem)
		delete(e.idx, item.key)
		expired = append(expired, item.key)
	}
	return expired
}

func (e *ExpiryHeap) Len() int {
	return len(e.idx)
}
