// Package queue provides the bounded heap used for top-K selection.
package queue

// Bounded keeps the best limit items pushed so far.
//
// Ranking is defined by better: better(a, b) reports whether a ranks before b.
// better must be a strict total order over the pushed items, otherwise the
// selection is not deterministic.
//
// Internally the heap keeps the worst retained item on top so that a new
// candidate only has to beat the root to be admitted.
type Bounded[T any] struct {
	limit  int
	better func(a, b T) bool
	items  []T
}

// NewBounded creates a Bounded queue retaining at most limit items.
// A limit <= 0 retains every item.
func NewBounded[T any](limit int, better func(a, b T) bool) *Bounded[T] {
	capacity := limit
	if capacity <= 0 || capacity > 1024 {
		capacity = 1024
	}
	return &Bounded[T]{
		limit:  limit,
		better: better,
		items:  make([]T, 0, capacity),
	}
}

// Len returns the number of retained items.
func (q *Bounded[T]) Len() int { return len(q.items) }

// Push offers an item. It reports whether the item was retained.
func (q *Bounded[T]) Push(item T) bool {
	if q.limit <= 0 || len(q.items) < q.limit {
		q.items = append(q.items, item)
		q.siftUp(len(q.items) - 1)
		return true
	}
	if !q.better(item, q.items[0]) {
		return false
	}
	q.items[0] = item
	q.siftDown(0)
	return true
}

// Worst returns the lowest ranked retained item.
func (q *Bounded[T]) Worst() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// Drain empties the queue and returns its items best first.
func (q *Bounded[T]) Drain() []T {
	n := len(q.items)
	out := make([]T, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = q.pop()
	}
	return out
}

func (q *Bounded[T]) pop() T {
	n := len(q.items)
	root := q.items[0]
	last := q.items[n-1]
	var zero T
	q.items[n-1] = zero
	q.items = q.items[:n-1]
	if n-1 > 0 {
		q.items[0] = last
		q.siftDown(0)
	}
	return root
}

// less orders the heap worst first.
func (q *Bounded[T]) less(i, j int) bool {
	return q.better(q.items[j], q.items[i])
}

func (q *Bounded[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *Bounded[T]) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		worst := l
		r := l + 1
		if r < n && q.less(r, l) {
			worst = r
		}
		if !q.less(worst, i) {
			return
		}
		q.items[i], q.items[worst] = q.items[worst], q.items[i]
		i = worst
	}
}
