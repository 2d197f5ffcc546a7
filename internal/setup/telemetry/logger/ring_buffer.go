package logger

// RingBuffer keeps the most recent lines written to a log file.
type RingBuffer struct {
	lines    []string
	next     int // Index of the next write
	full     bool
	sinceCut int // Lines written since the file was last truncated
}

// NewRingBuffer creates a ring buffer holding at most capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{lines: make([]string, capacity)}
}

// Capacity returns the maximum number of retained lines.
func (rb *RingBuffer) Capacity() int {
	return len(rb.lines)
}

// Push stores a line, overwriting the oldest one once the buffer is full.
func (rb *RingBuffer) Push(line string) {
	rb.lines[rb.next] = line
	rb.next++

	if rb.next == len(rb.lines) {
		rb.next = 0
		rb.full = true
	}

	rb.sinceCut++
}

// Len returns the number of retained lines.
func (rb *RingBuffer) Len() int {
	if rb.full {
		return len(rb.lines)
	}

	return rb.next
}

// Lines returns the retained lines oldest first.
func (rb *RingBuffer) Lines() []string {
	if !rb.full {
		return append([]string(nil), rb.lines[:rb.next]...)
	}

	out := make([]string, 0, len(rb.lines))
	out = append(out, rb.lines[rb.next:]...)

	return append(out, rb.lines[:rb.next]...)
}
