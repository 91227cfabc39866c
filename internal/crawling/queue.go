package crawling

import "sort"

// SemanticPriority is the priority given to golden links.
const SemanticPriority = 9999

// Item is a queued URL.
type Item struct {
	URL      string
	Depth    int
	Priority int
	// Golden items stay ahead of every scored item
	Golden bool
}

// Queue is a priority list re-sorted after each insertion. Equal priorities keep insertion
// order.
type Queue struct {
	items  []Item
	queued map[string]bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{queued: make(map[string]bool)}
}

// Push inserts an item in priority order. It reports false if the URL is already queued.
func (q *Queue) Push(item Item) bool {
	if q.queued[item.URL] {
		return false
	}
	q.queued[item.URL] = true
	q.items = append(q.items, item)
	q.sort()
	return true
}

// PushFront marks the item golden and puts it at the head of the queue. A URL already
// queued is promoted.
func (q *Queue) PushFront(item Item) {
	item.Golden = true
	item.Priority = SemanticPriority
	if q.queued[item.URL] {
		for i := range q.items {
			if q.items[i].URL == item.URL {
				q.items = append(q.items[:i], q.items[i+1:]...)
				break
			}
		}
	}
	q.queued[item.URL] = true
	q.items = append([]Item{item}, q.items...)
}

// Pop removes and returns the head.
func (q *Queue) Pop() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	delete(q.queued, item.URL)
	return item, true
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	return len(q.items)
}

// Contains reports whether the URL is queued.
func (q *Queue) Contains(url string) bool {
	return q.queued[url]
}

func (q *Queue) sort() {
	sort.SliceStable(q.items, func(i, j int) bool {
		a, b := q.items[i], q.items[j]
		if a.Golden != b.Golden {
			return a.Golden
		}
		return a.Priority > b.Priority
	})
}
