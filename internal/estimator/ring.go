package estimator

// ring is a fixed-capacity circular buffer of request metrics.
// When full, the oldest entry is silently overwritten.
type ring struct {
	items []Metric
	head  int // index of oldest item
	count int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &ring{items: make([]Metric, capacity)}
}

func (r *ring) push(m Metric) {
	writeIdx := (r.head + r.count) % len(r.items)
	r.items[writeIdx] = m
	if r.count == len(r.items) {
		// Full: advance head to drop the oldest sample.
		r.head = (r.head + 1) % len(r.items)
	} else {
		r.count++
	}
}

// values returns the stored metrics in FIFO order (oldest first).
func (r *ring) values() []Metric {
	out := make([]Metric, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.items[(r.head+i)%len(r.items)])
	}
	return out
}

func (r *ring) len() int {
	return r.count
}
