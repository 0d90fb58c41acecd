package impact

// Buffer is an ordered sequence of samples with a fixed capacity.
// Storage is allocated once, appends never grow it.
type Buffer struct {
	items []Sample
	size  int
}

// NewBuffer allocates a Buffer holding up to capacity samples.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{items: make([]Sample, capacity)}
}

// Append adds s at the end, it returns false and drops s when full.
func (b *Buffer) Append(s Sample) bool {
	if b.size >= len(b.items) {
		return false
	}
	b.items[b.size] = s
	b.size++
	return true
}

// Len returns the number of samples held.
func (b *Buffer) Len() int {
	return b.size
}

// Cap returns the capacity.
func (b *Buffer) Cap() int {
	return len(b.items)
}

// Full reports whether no more samples can be appended.
func (b *Buffer) Full() bool {
	return b.size >= len(b.items)
}

// At returns the sample at index i, which must be below Len.
func (b *Buffer) At(i int) Sample {
	if i < 0 || i >= b.size {
		panic("impact: buffer index out of range")
	}
	return b.items[i]
}

// Samples returns the held samples. The slice aliases the buffer.
func (b *Buffer) Samples() []Sample {
	return b.items[:b.size]
}

// Clear empties the buffer and zeroes its contents.
func (b *Buffer) Clear() {
	for i := range b.items[:b.size] {
		b.items[i] = Sample{}
	}
	b.size = 0
}
