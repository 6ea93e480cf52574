// Package memory is an in-memory summary sink used in tests and local
// runs without a Google Sheets target.
package memory

import (
	"context"
	"sync"

	"caixa/internal/core"
)

type Store struct {
	mu   sync.Mutex
	rows map[core.MonthKey]core.MonthSummary
}

func New() *Store {
	return &Store{rows: make(map[core.MonthKey]core.MonthSummary)}
}

// AppendMonthSummary stores the summary, replacing any earlier row for
// the same month.
func (s *Store) AppendMonthSummary(_ context.Context, key core.MonthKey, summary core.MonthSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key] = summary
	return nil
}

// Row returns the exported summary for a month, if any.
func (s *Store) Row(key core.MonthKey) (core.MonthSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key]
	return row, ok
}

// Len returns the number of exported months.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
