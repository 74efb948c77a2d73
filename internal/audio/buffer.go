package audio

import (
	"sync"
)

// RingBuffer is a thread-safe ring buffer staging decoded PCM between a
// decoder filling it and a cadenced reader draining fixed-size chunks.
// One slot is reserved to distinguish full from empty.
type RingBuffer struct {
	buffer []byte
	size   int
	read   int
	write  int
	mu     sync.RWMutex
}

// NewRingBuffer creates a new ring buffer with the specified size
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]byte, size),
		size:   size,
	}
}

// Write writes data to the ring buffer
// Returns the number of bytes written (may be less than len(data) if buffer is full)
func (rb *RingBuffer) Write(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	space := rb.size - rb.available() - 1
	if space <= 0 {
		return 0
	}
	if len(data) > space {
		data = data[:space]
	}

	// Copy in up to two segments around the wrap point
	n := copy(rb.buffer[rb.write:], data)
	if n < len(data) {
		n += copy(rb.buffer, data[n:])
	}
	rb.write = (rb.write + n) % rb.size

	return n
}

// Read reads data from the ring buffer
// Returns the number of bytes read
func (rb *RingBuffer) Read(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	avail := rb.available()
	if avail == 0 {
		return 0
	}
	if len(data) > avail {
		data = data[:avail]
	}

	n := copy(data, rb.buffer[rb.read:])
	if n < len(data) {
		n += copy(data[n:], rb.buffer)
	}
	rb.read = (rb.read + n) % rb.size

	return n
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.available()
}

func (rb *RingBuffer) available() int {
	if rb.write >= rb.read {
		return rb.write - rb.read
	}
	return rb.size - rb.read + rb.write
}

// Space returns the number of bytes available to write
func (rb *RingBuffer) Space() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size - rb.available() - 1
}

// Clear clears the buffer
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.read = 0
	rb.write = 0
}
