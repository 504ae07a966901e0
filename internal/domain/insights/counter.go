package insights

import "sort"

// counter counts string keys and remembers the order they were first seen.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) get(key string) int {
	return c.counts[key]
}

func (c *counter) len() int {
	return len(c.order)
}

type entry struct {
	key   string
	count int
}

// mostCommon returns up to n entries by descending count. Ties keep
// first-seen order. n <= 0 returns every entry.
func (c *counter) mostCommon(n int) []entry {
	out := make([]entry, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, entry{key: k, count: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// asMap returns the counts of the given entries.
func asMap(entries []entry) map[string]int {
	m := make(map[string]int, len(entries))
	for _, e := range entries {
		m[e.key] = e.count
	}
	return m
}
