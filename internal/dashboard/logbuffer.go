package dashboard

import "sync"

// LogBuffer captures recent log lines in memory for the dashboard's log
// view and websocket tail.
type LogBuffer struct {
	lines []string
	subs  map[chan string]bool
	mu    sync.Mutex
}

func NewLogBuffer() *LogBuffer {
	return &LogBuffer{
		lines: make([]string, 0, 1000),
		subs:  make(map[chan string]bool),
	}
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	line := string(p)
	lb.lines = append(lb.lines, line)
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	for ch := range lb.subs {
		select {
		case ch <- line:
		default: // slow subscriber, drop the line
		}
	}
	return len(p), nil
}

// Lines returns a copy of the buffered lines.
func (lb *LogBuffer) Lines() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	out := make([]string, len(lb.lines))
	copy(out, lb.lines)
	return out
}

// Subscribe registers a live tail channel. Call the returned func to
// unsubscribe.
func (lb *LogBuffer) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	lb.mu.Lock()
	lb.subs[ch] = true
	lb.mu.Unlock()
	return ch, func() {
		lb.mu.Lock()
		delete(lb.subs, ch)
		lb.mu.Unlock()
		close(ch)
	}
}
