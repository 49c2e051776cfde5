package calc

// window is a fixed-size ring of the most recent samples.
type window struct {
	values []float64
	next   int
}

func newWindow(size int) *window {
	return &window{values: make([]float64, size)}
}

func (w *window) push(v float64) {
	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
}

func (w *window) sum() float64 {
	var s float64
	for _, v := range w.values {
		s += v
	}
	return s
}

// clear refills the window with zeros.
func (w *window) clear() {
	for i := range w.values {
		w.values[i] = 0
	}
	w.next = 0
}
