package cart

import "sync"

// Store owns the canonical line-item list for one session and keeps the
// derived totals consistent with it. There is exactly one logical writer per
// session; the mutex exists because HTTP requests for that session may land
// on different goroutines.
type Store struct {
	mu     sync.RWMutex
	items  []LineItem
	totals Totals
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{}
	s.totals = ComputeTotals(nil)
	return s
}

// Load replaces the entire list wholesale. It never merges with prior state.
func (s *Store) Load(items []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = Snapshot(items).Clone()
	s.totals = ComputeTotals(s.items)
}

// Get returns the current items and totals as a consistent pair, both drawn
// from the same snapshot.
func (s *Store) Get() ([]LineItem, Totals) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot(s.items).Clone(), s.totals
}

// Snapshot captures the current list as a rollback point.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot(s.items).Clone()
}

// Restore replaces the list with a previously captured snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = snap.Clone()
	s.totals = ComputeTotals(s.items)
}

// Clear empties the store (logout or explicit clear).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.totals = ComputeTotals(nil)
}

// Find returns the item with the given itemID, if present.
func (s *Store) Find(itemID string) (LineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ItemID == itemID {
			return item, true
		}
	}
	return LineItem{}, false
}

// FindProduct returns the item holding the given productID, if present.
func (s *Store) FindProduct(productID string) (LineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}

// update applies fn to a copy of the list, swaps the result in, and recomputes
// totals as the final step. Every mutating path funnels through here.
func (s *Store) update(fn func(items []LineItem) []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = fn(Snapshot(s.items).Clone())
	s.totals = ComputeTotals(s.items)
}
