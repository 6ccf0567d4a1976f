package engine

import "github.com/ZoOtMcNoOt/gaitqueue/pkg/models"

// jobQueue holds the ids of dispatchable jobs in dispatch order. Ordering is
// decided at insertion time; pop always takes the head. Not safe for
// concurrent use, callers hold the engine mutex.
type jobQueue struct {
	ids []string
}

// push appends id at the tail.
func (q *jobQueue) push(id string) {
	q.ids = append(q.ids, id)
}

// insert places id before the first entry whose priority is strictly lower,
// so equal-priority jobs keep submission order. rank resolves the priority of
// ids already queued.
func (q *jobQueue) insert(id string, prio models.Priority, rank func(string) models.Priority) {
	at := len(q.ids)
	for i, existing := range q.ids {
		if rank(existing) < prio {
			at = i
			break
		}
	}
	q.ids = append(q.ids, "")
	copy(q.ids[at+1:], q.ids[at:])
	q.ids[at] = id
}

// popFront removes and returns the head id.
func (q *jobQueue) popFront() (string, bool) {
	if len(q.ids) == 0 {
		return "", false
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, true
}

// head returns the head id without removing it.
func (q *jobQueue) head() (string, bool) {
	if len(q.ids) == 0 {
		return "", false
	}
	return q.ids[0], true
}

// remove deletes id from the queue, wherever it sits.
func (q *jobQueue) remove(id string) bool {
	for i, existing := range q.ids {
		if existing == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			return true
		}
	}
	return false
}

func (q *jobQueue) len() int {
	return len(q.ids)
}
