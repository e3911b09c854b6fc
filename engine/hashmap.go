package engine

import "github.com/spaolacci/murmur3"

// minBuckets is the smallest bucket count a HashMap ever shrinks to (it
// never shrinks below this, matching the "minimum 16" requirement).
const minBuckets = 16

// maxLoadFactor triggers a synchronous doubling rehash on the write that
// crosses it.
const maxLoadFactor = 0.75

// SetResult distinguishes a fresh insertion from an update of an existing
// key, per the hash map's set() contract.
type SetResult int

const (
	Inserted SetResult = iota
	Updated
)

type hmNode struct {
	key   string
	value []byte
	next  *hmNode
}

// HashMap is the primary string->string KV container: separate chaining
// over a power-of-two bucket array, sized by a MurmurHash3-32 hash of the
// key. It holds no lock of its own — the executor's reader/writer lock
// around the owning Engine serializes all writes.
type HashMap struct {
	buckets []*hmNode
	mask    uint32
	count   int
}

func NewHashMap() *HashMap {
	return &HashMap{
		buckets: make([]*hmNode, minBuckets),
		mask:    minBuckets - 1,
	}
}

func (h *HashMap) bucketIndex(key string) uint32 {
	return murmur3.Sum32([]byte(key)) & h.mask
}

// Set inserts or updates key. Returns Inserted for a brand new key,
// Updated when an existing value was replaced.
func (h *HashMap) Set(key string, value []byte) SetResult {
	idx := h.bucketIndex(key)
	for n := h.buckets[idx]; n != nil; n = n.next {
		if n.key == key {
			n.value = value
			return Updated
		}
	}

	h.buckets[idx] = &hmNode{key: key, value: value, next: h.buckets[idx]}
	h.count++

	if h.LoadFactor() > maxLoadFactor {
		h.resize()
	}
	return Inserted
}

func (h *HashMap) Get(key string) ([]byte, bool) {
	idx := h.bucketIndex(key)
	for n := h.buckets[idx]; n != nil; n = n.next {
		if n.key == key {
			return n.value, true
		}
	}
	return nil, false
}

func (h *HashMap) Del(key string) bool {
	idx := h.bucketIndex(key)
	var prev *hmNode
	for n := h.buckets[idx]; n != nil; n = n.next {
		if n.key == key {
			if prev == nil {
				h.buckets[idx] = n.next
			} else {
				prev.next = n.next
			}
			h.count--
			return true
		}
		prev = n
	}
	return false
}

func (h *HashMap) Exists(key string) bool {
	_, ok := h.Get(key)
	return ok
}

// Keys returns every key whose bytes match pattern ('*' any run, '?' one
// byte). The scan is full-table and unordered.
func (h *HashMap) Keys(pattern string) []string {
	out := make([]string, 0, h.count)
	for _, bucket := range h.buckets {
		for n := bucket; n != nil; n = n.next {
			if matchGlob(pattern, n.key) {
				out = append(out, n.key)
			}
		}
	}
	return out
}

func (h *HashMap) Clear() {
	h.buckets = make([]*hmNode, minBuckets)
	h.mask = minBuckets - 1
	h.count = 0
}

func (h *HashMap) Len() int { return h.count }

func (h *HashMap) LoadFactor() float64 {
	return float64(h.count) / float64(len(h.buckets))
}

// BucketStats reports the occupancy histogram the spec's stats() operation
// names: index i counts how many buckets hold exactly i entries, where the
// last bucket is an overflow bucket for chains longer than len(Histogram)-1.
type BucketStats struct {
	BucketCount int
	Count       int
	LoadFactor  float64
	Histogram   []int
}

func (h *HashMap) Stats() BucketStats {
	const histBuckets = 8
	hist := make([]int, histBuckets)
	for _, bucket := range h.buckets {
		n := 0
		for node := bucket; node != nil; node = node.next {
			n++
		}
		if n >= histBuckets {
			n = histBuckets - 1
		}
		hist[n]++
	}
	return BucketStats{
		BucketCount: len(h.buckets),
		Count:       h.count,
		LoadFactor:  h.LoadFactor(),
		Histogram:   hist,
	}
}

func (h *HashMap) resize() {
	newCap := len(h.buckets) * 2
	newBuckets := make([]*hmNode, newCap)
	newMask := uint32(newCap - 1)

	for _, bucket := range h.buckets {
		for n := bucket; n != nil; {
			next := n.next
			idx := murmur3.Sum32([]byte(n.key)) & newMask
			n.next = newBuckets[idx]
			newBuckets[idx] = n
			n = next
		}
	}

	h.buckets = newBuckets
	h.mask = newMask
}
