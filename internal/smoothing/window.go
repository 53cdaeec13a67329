// Package smoothing stabilizes noisy per-frame labels with a rolling plurality vote.
package smoothing

// DefaultCapacity is the number of recent labels the window holds.
const DefaultCapacity = 35

// Window is a bounded FIFO of raw labels. It is not safe for concurrent use;
// callers serialize access (see session.Session).
type Window struct {
	labels   []string
	capacity int
}

// NewWindow creates a window holding at most capacity labels.
// A non-positive capacity falls back to DefaultCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{
		labels:   make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a label, evicting the oldest one when full, and returns the
// plurality label over the current contents.
func (w *Window) Push(label string) string {
	if len(w.labels) == w.capacity {
		copy(w.labels, w.labels[1:])
		w.labels = w.labels[:len(w.labels)-1]
	}
	w.labels = append(w.labels, label)
	return w.Plurality()
}

// Plurality returns the most frequent label. Among labels with the same
// count, the one first seen scanning oldest to newest wins. An empty window
// returns "".
func (w *Window) Plurality() string {
	counts := make(map[string]int, len(w.labels))
	order := make([]string, 0, len(w.labels))
	for _, l := range w.labels {
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}

	best := ""
	bestCount := 0
	for _, l := range order {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}

// Len returns the number of labels held.
func (w *Window) Len() int { return len(w.labels) }

// Cap returns the window capacity.
func (w *Window) Cap() int { return w.capacity }

// Labels returns a copy of the contents, oldest first.
func (w *Window) Labels() []string {
	out := make([]string, len(w.labels))
	copy(out, w.labels)
	return out
}

// Last returns a copy of the newest n labels, oldest first.
func (w *Window) Last(n int) []string {
	if n > len(w.labels) {
		n = len(w.labels)
	}
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	copy(out, w.labels[len(w.labels)-n:])
	return out
}

// Clone returns an independent copy of the window.
func (w *Window) Clone() *Window {
	labels := make([]string, len(w.labels), w.capacity)
	copy(labels, w.labels)
	return &Window{labels: labels, capacity: w.capacity}
}
