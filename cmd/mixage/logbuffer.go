package main

import "sync"

// logBuffer keeps last N raw log messages.
type logBuffer struct {
	mu    sync.Mutex
	data  [][]byte
	start int
	count int
}

func newLogBuffer(size int) *logBuffer {
	if size < 1 {
		size = 1
	}
	return &logBuffer{data: make([][]byte, size)}
}

func (b *logBuffer) WriteMessage(msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count < len(b.data) {
		b.data[(b.start+b.count)%len(b.data)] = msg
		b.count++
		return
	}
	b.data[b.start] = msg
	b.start = (b.start + 1) % len(b.data)
}

// ReadLastMessages returns up to n newest messages, oldest first.
func (b *logBuffer) ReadLastMessages(n int) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return nil
	}
	messages := make([][]byte, 0, n)
	for i := b.count - n; i < b.count; i++ {
		messages = append(messages, b.data[(b.start+i)%len(b.data)])
	}
	return messages
}
