package notify

// idRing remembers the most recent ids in a fixed-size circular buffer.
type idRing struct {
	buf  []string
	next int
	set  map[string]struct{}
}

func newIDRing(size int) *idRing {
	if size < 1 {
		size = 1
	}
	return &idRing{
		buf: make([]string, size),
		set: make(map[string]struct{}, size),
	}
}

func (r *idRing) contains(id string) bool {
	_, ok := r.set[id]
	return ok
}

func (r *idRing) add(id string) {
	if r.contains(id) {
		return
	}
	if old := r.buf[r.next]; old != "" {
		delete(r.set, old)
	}
	r.buf[r.next] = id
	r.set[id] = struct{}{}
	r.next = (r.next + 1) % len(r.buf)
}
