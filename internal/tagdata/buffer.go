package tagdata

import "sync"

// Buffer is a fixed-capacity FIFO of tag records. Once full, each Push
// overwrites the oldest record. All reads return copies.
type Buffer struct {
	mu       sync.RWMutex
	data     []TagRecord
	head     int // next write position
	size     int
	capacity int
}

// NewBuffer creates a buffer holding at most capacity records. A capacity
// below one is raised to one.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		data:     make([]TagRecord, capacity),
		capacity: capacity,
	}
}

// Push appends a record, evicting the oldest one when the buffer is full.
func (b *Buffer) Push(r TagRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[b.head] = r
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Snapshot returns every buffered record, oldest first.
func (b *Buffer) Snapshot() []TagRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tail(b.size)
}

// LastN returns the n most recent records in arrival order, or the whole
// buffer when it holds n or fewer.
func (b *Buffer) LastN(n int) []TagRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 {
		return []TagRecord{}
	}
	return b.tail(min(n, b.size))
}

// tail copies the newest n records. Caller holds the lock.
func (b *Buffer) tail(n int) []TagRecord {
	out := make([]TagRecord, n)
	start := (b.head - n + b.capacity) % b.capacity
	for i := range n {
		out[i] = b.data[(start+i)%b.capacity]
	}
	return out
}

// Size returns the number of buffered records.
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the maximum number of records held.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Clear drops every record.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.data)
	b.head = 0
	b.size = 0
}
