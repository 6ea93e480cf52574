// Package memory is the in-memory ledger store: the default backend for
// local runs and the fixture store for tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"caixa/internal/core"
)

type monthData struct {
	entries []core.Entry
	vars    []core.VariableExpense
	fixed   []core.FixedExpenseInstance
	cards   map[string]core.CardState
	meta    core.MonthMeta
	hasMeta bool
}

type Store struct {
	mu     sync.Mutex
	months map[core.MonthKey]*monthData
	plans  map[string]core.MasterPlan
	specs  []core.CardSpec
}

func New() *Store {
	return &Store{
		months: make(map[core.MonthKey]*monthData),
		plans:  make(map[string]core.MasterPlan),
	}
}

func (s *Store) month(key core.MonthKey) *monthData {
	m, ok := s.months[key]
	if !ok {
		m = &monthData{cards: make(map[string]core.CardState)}
		s.months[key] = m
	}
	return m
}

func (s *Store) LoadMonth(_ context.Context, key core.MonthKey) (*core.MonthlyLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := core.NewMonthlyLedger(key)
	m, ok := s.months[key]
	if !ok {
		return l, nil
	}
	l.Entries = append([]core.Entry(nil), m.entries...)
	l.VariableExpenses = append([]core.VariableExpense(nil), m.vars...)
	l.FixedExpenses = append([]core.FixedExpenseInstance(nil), m.fixed...)
	maps.Copy(l.Cards, m.cards)
	l.OpeningCash = m.meta.OpeningCash
	l.OpeningCashSet = m.meta.OpeningCashSet
	l.ClosingCash = m.meta.ClosingCash
	return l, nil
}

func (s *Store) SaveEntries(_ context.Context, key core.MonthKey, entries []core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.month(key).entries = append([]core.Entry(nil), entries...)
	return nil
}

func (s *Store) SaveVariableExpenses(_ context.Context, key core.MonthKey, expenses []core.VariableExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.month(key).vars = append([]core.VariableExpense(nil), expenses...)
	return nil
}

func (s *Store) SaveFixedExpenses(_ context.Context, key core.MonthKey, fixed []core.FixedExpenseInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.month(key).fixed = append([]core.FixedExpenseInstance(nil), fixed...)
	return nil
}

func (s *Store) SaveCards(_ context.Context, key core.MonthKey, cards map[string]core.CardState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.month(key)
	m.cards = make(map[string]core.CardState, len(cards))
	maps.Copy(m.cards, cards)
	return nil
}

func (s *Store) SaveMeta(_ context.Context, key core.MonthKey, meta core.MonthMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.month(key)
	m.meta = meta
	m.hasMeta = true
	return nil
}

func (s *Store) LoadClosingCash(_ context.Context, key core.MonthKey) (core.Money, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.months[key]
	if !ok || !m.hasMeta {
		return core.Money{}, false, nil
	}
	return m.meta.ClosingCash, true, nil
}

func (s *Store) LoadPlans(_ context.Context) (map[string]core.MasterPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]core.MasterPlan, len(s.plans))
	maps.Copy(out, s.plans)
	return out, nil
}

func (s *Store) SavePlans(_ context.Context, plans map[string]core.MasterPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = make(map[string]core.MasterPlan, len(plans))
	maps.Copy(s.plans, plans)
	return nil
}

func (s *Store) LoadCardSpecs(_ context.Context) ([]core.CardSpec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CardSpec(nil), s.specs...), nil
}

func (s *Store) SaveCardSpecs(_ context.Context, specs []core.CardSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specs = append([]core.CardSpec(nil), specs...)
	return nil
}
