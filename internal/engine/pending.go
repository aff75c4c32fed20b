package engine

import "github.com/vltamanec/logpulse/internal/domain"

// pendingQueue is a FIFO of raw lines awaiting processing
type pendingQueue struct {
	items []domain.Line
	head  int
}

func (q *pendingQueue) len() int {
	return len(q.items) - q.head
}

func (q *pendingQueue) push(lines []domain.Line) {
	q.items = append(q.items, lines...)
}

// pop removes and returns up to max lines from the front
func (q *pendingQueue) pop(max int) []domain.Line {
	n := q.len()
	if n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := make([]domain.Line, n)
	copy(out, q.items[q.head:q.head+n])
	q.advance(n)
	return out
}

// trim drops the oldest lines beyond limit and returns how many data lines
// were lost.
func (q *pendingQueue) trim(limit int) int {
	over := q.len() - limit
	if over <= 0 {
		return 0
	}
	dropped := 0
	for _, l := range q.items[q.head : q.head+over] {
		if l.Kind == domain.LineData {
			dropped++
		}
	}
	q.advance(over)
	return dropped
}

func (q *pendingQueue) advance(n int) {
	for i := q.head; i < q.head+n; i++ {
		q.items[i] = domain.Line{}
	}
	q.head += n
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > len(q.items)/2 {
		rest := copy(q.items, q.items[q.head:])
		q.items = q.items[:rest]
		q.head = 0
	}
}
