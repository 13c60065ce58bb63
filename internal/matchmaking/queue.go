package matchmaking

import "sync"

type entry struct {
	connID string
	name   string
}

// Queue - FIFO holding area for sessions awaiting an opponent. The earliest
// waiting entry is always paired first so nobody is starved by later
// arrivals.
type Queue struct {
	mu      sync.Mutex
	waiting []entry
}

func New() *Queue {
	return &Queue{}
}

// Enqueue - appends the connection unless it is already waiting.
func (that *Queue) Enqueue(connID, name string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.enqueueLocked(connID, name)
}

// TryPair - pops the earliest waiting entry distinct from the requester. If
// nobody is waiting, the requester is left enqueued instead. The check and
// the removal are a single atomic step under the queue lock.
func (that *Queue) TryPair(connID, name string) (string, string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i, waiter := range that.waiting {
		if waiter.connID == connID {
			continue
		}

		that.waiting = append(that.waiting[:i], that.waiting[i+1:]...)
		that.removeLocked(connID)

		return waiter.connID, waiter.name, true
	}

	that.enqueueLocked(connID, name)

	return "", "", false
}

// Remove - drops a waiting entry; no-op when absent. Called when a queued
// connection leaves or disconnects so a dead connection is never paired.
func (that *Queue) Remove(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(connID)
}

// Len - number of waiting entries.
func (that *Queue) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.waiting)
}

func (that *Queue) enqueueLocked(connID, name string) {
	for _, waiter := range that.waiting {
		if waiter.connID == connID {
			return
		}
	}

	that.waiting = append(that.waiting, entry{connID: connID, name: name})
}

func (that *Queue) removeLocked(connID string) {
	for i, waiter := range that.waiting {
		if waiter.connID == connID {
			that.waiting = append(that.waiting[:i], that.waiting[i+1:]...)
			return
		}
	}
}
