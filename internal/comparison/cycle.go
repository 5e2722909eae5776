package comparison

// cycle yields each value repeat times, in order, then starts over.
// An empty value list or a repeat below one yields zero forever.
type cycle struct {
	values []int
	repeat int
	pos    int
	count  int
}

func newCycle(values []int, repeat int) *cycle {
	return &cycle{values: values, repeat: repeat}
}

func (c *cycle) next() int {
	if len(c.values) == 0 || c.repeat < 1 {
		return 0
	}
	v := c.values[c.pos]
	c.count++
	if c.count == c.repeat {
		c.count = 0
		c.pos = (c.pos + 1) % len(c.values)
	}
	return v
}
