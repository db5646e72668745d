package flux

import "slices"

// Credit is an amount of money owed to the consumer, stamped with the absolute month it was
// generated in.
type Credit struct {
	Value float64
	Month int
}

// Queue holds credits oldest first.
type Queue struct {
	credits []Credit
}

func (q *Queue) Len() int {
	return len(q.credits)
}

// PushBack adds a newly generated credit.
func (q *Queue) PushBack(c Credit) {
	q.credits = append(q.credits, c)
}

// PushFront returns a partially consumed credit to the head of the queue.
func (q *Queue) PushFront(c Credit) {
	q.credits = slices.Insert(q.credits, 0, c)
}

// PopFront removes the oldest credit. It panics on an empty queue.
func (q *Queue) PopFront() Credit {
	c := q.credits[0]
	q.credits = q.credits[1:]
	return c
}

// Total sums the value of the queued credits.
func (q *Queue) Total() float64 {
	var total float64
	for _, c := range q.credits {
		total += c.Value
	}
	return total
}
