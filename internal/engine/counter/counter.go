// Package counter holds the named occurrence counters filled by the
// classifier and merged across workers.
package counter

import "sort"

// Counter maps a key to its occurrence count and remembers the order in
// which keys were first seen.
type Counter struct {
	index  map[string]int
	keys   []string
	counts []int
}

// Entry is one key with its count.
type Entry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

func NewCounter() *Counter {
	return &Counter{index: make(map[string]int)}
}

// Incr adds one to key, creating it at zero first.
func (c *Counter) Incr(key string) {
	c.Add(key, 1)
}

// Add adds n to key. Negative n is ignored; counts never decrease.
func (c *Counter) Add(key string, n int) {
	if n < 0 {
		return
	}
	if i, ok := c.index[key]; ok {
		c.counts[i] += n
		return
	}
	c.index[key] = len(c.keys)
	c.keys = append(c.keys, key)
	c.counts = append(c.counts, n)
}

// Get returns the count for key, zero when absent.
func (c *Counter) Get(key string) int {
	if i, ok := c.index[key]; ok {
		return c.counts[i]
	}
	return 0
}

func (c *Counter) Len() int { return len(c.keys) }

// Total returns the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Keys returns keys in first-insertion order.
func (c *Counter) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Each calls fn for every key in first-insertion order.
func (c *Counter) Each(fn func(key string, count int)) {
	for i, key := range c.keys {
		fn(key, c.counts[i])
	}
}

// Sorted returns entries by count descending. Equal counts keep
// first-insertion order.
func (c *Counter) Sorted() []Entry {
	entries := make([]Entry, len(c.keys))
	for i, key := range c.keys {
		entries[i] = Entry{Key: key, Count: c.counts[i]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

func (c *Counter) Clone() *Counter {
	out := &Counter{
		index:  make(map[string]int, len(c.index)),
		keys:   make([]string, len(c.keys)),
		counts: make([]int, len(c.counts)),
	}
	for k, v := range c.index {
		out.index[k] = v
	}
	copy(out.keys, c.keys)
	copy(out.counts, c.counts)
	return out
}

// Equal compares counts key for key, ignoring insertion order.
func (c *Counter) Equal(other *Counter) bool {
	if c.Len() != other.Len() {
		return false
	}
	for i, key := range c.keys {
		if other.Get(key) != c.counts[i] {
			return false
		}
	}
	return true
}
