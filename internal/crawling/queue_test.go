package crawling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func popAll(q *Queue) []string {
	var out []string
	for q.Len() > 0 {
		item, _ := q.Pop()
		out = append(out, item.URL)
	}
	return out
}

func TestQueue_PriorityOrderStable(t *testing.T) {
	q := NewQueue()
	q.Push(Item{URL: "a", Priority: 10})
	q.Push(Item{URL: "b", Priority: 50})
	q.Push(Item{URL: "c", Priority: 10})
	q.Push(Item{URL: "d", Priority: 80})

	assert.Equal(t, []string{"d", "b", "a", "c"}, popAll(q))
}

func TestQueue_PushRejectsDuplicates(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.Push(Item{URL: "a"}))
	assert.False(t, q.Push(Item{URL: "a", Priority: 100}))
	assert.Equal(t, 1, q.Len())
	assert.True(t, q.Contains("a"))

	q.Pop()
	assert.False(t, q.Contains("a"))
}

func TestQueue_PushFrontStaysAhead(t *testing.T) {
	q := NewQueue()
	q.Push(Item{URL: "a", Priority: 100})
	q.Push(Item{URL: "b", Priority: 5})
	q.PushFront(Item{URL: "b"})
	q.PushFront(Item{URL: "g"})
	q.Push(Item{URL: "z", Priority: 20000})

	assert.Equal(t, []string{"g", "b", "z", "a"}, popAll(q))
}

func TestQueue_PopEmpty(t *testing.T) {
	_, ok := NewQueue().Pop()
	assert.False(t, ok)
}

func TestQueue_PushFrontSetsPriority(t *testing.T) {
	q := NewQueue()
	q.PushFront(Item{URL: "g", Depth: 2})
	item, ok := q.Pop()
	require.True(t, ok)
	assert.True(t, item.Golden)
	assert.Equal(t, SemanticPriority, item.Priority)
	assert.Equal(t, 2, item.Depth)
}
