package styler

import (
	"strconv"
	"sync/atomic"
)

// Counter produces generated identifiers. Values are never reused: counter
// only grows and is never reset.
type Counter struct {
	next atomic.Uint64
}

// Next returns a fresh identifier.
func (c *Counter) Next() string {
	return strconv.FormatUint(c.next.Add(1)-1, 10)
}

// Peek returns identifier the next call to Next will produce.
func (c *Counter) Peek() uint64 {
	return c.next.Load()
}

// Observe makes sure identifiers produced from now on are above id. Values
// which are not decimal numbers are ignored.
func (c *Counter) Observe(id string) {
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return
	}
	for {
		cur := c.next.Load()
		if cur > v || c.next.CompareAndSwap(cur, v+1) {
			return
		}
	}
}
