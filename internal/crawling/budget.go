package crawling

import "sync"

// BudgetStatus is the admission level of a Budget.
type BudgetStatus int

const (
	// BudgetOK admits every URL
	BudgetOK BudgetStatus = iota
	// BudgetSoft admits only high-priority URLs
	BudgetSoft
	// BudgetHard admits nothing
	BudgetHard
)

func (s BudgetStatus) String() string {
	switch s {
	case BudgetSoft:
		return "soft"
	case BudgetHard:
		return "hard"
	default:
		return "ok"
	}
}

// Budget counts fetched pages against soft and hard limits. The counter never decreases
// within a run; Reset starts a new run.
type Budget struct {
	mu      sync.Mutex
	soft    int
	hard    int
	crawled int
}

// NewBudget creates a budget. A soft limit above the hard limit is clamped to it.
func NewBudget(soft, hard int) *Budget {
	if soft > hard {
		soft = hard
	}
	return &Budget{soft: soft, hard: hard}
}

func (b *Budget) status() BudgetStatus {
	switch {
	case b.crawled >= b.hard:
		return BudgetHard
	case b.crawled >= b.soft:
		return BudgetSoft
	default:
		return BudgetOK
	}
}

func (b *Budget) admits(highPriority bool) bool {
	switch b.status() {
	case BudgetHard:
		return false
	case BudgetSoft:
		return highPriority
	default:
		return true
	}
}

// Status returns the current admission level.
func (b *Budget) Status() BudgetStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status()
}

// Admit reports whether a URL of the given priority may be queued or fetched now.
func (b *Budget) Admit(highPriority bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.admits(highPriority)
}

// AdmitFunc runs fn while holding the budget lock if the URL is admitted, so a concurrent
// Record cannot slip between the check and the queue insertion.
func (b *Budget) AdmitFunc(highPriority bool, fn func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.admits(highPriority) {
		return false
	}
	fn()
	return true
}

// Record counts one fetched page and returns the new total.
func (b *Budget) Record() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.crawled++
	return b.crawled
}

// Crawled returns the pages fetched so far.
func (b *Budget) Crawled() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.crawled
}

// Reset zeroes the counter for a new run.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.crawled = 0
}
