package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"caixa/internal/amqp"
	"caixa/internal/core"
	"caixa/internal/repo"
)

var (
	ErrStaleNavigation = errors.New("superseded by a newer navigation")
	ErrNotFound        = errors.New("item not found")
	ErrWrongMonth      = errors.New("date outside the open month")
	ErrNoOpenMonth     = errors.New("no month is open")
)

// Snapshot is a point-in-time copy of the open month and its summary,
// safe to hand out across the API boundary.
type Snapshot struct {
	Ledger  *core.MonthlyLedger `json:"ledger"`
	Summary core.MonthSummary   `json:"summary"`
}

// LedgerService orchestrates month navigation and mutation over the
// storage backend. It owns a single month cursor: every mutation
// applies to the open month, is persisted per sub-object, recomputes
// the summary, and publishes a month-changed notification.
type LedgerService struct {
	months   repo.MonthStore
	registry *PlanRegistry

	projection *ProjectionEngine
	carryover  *CarryoverResolver
	settlement *Settlement
	amqpClient *amqp.Client

	mu      sync.Mutex
	current *core.MonthlyLedger
	summary core.MonthSummary
	charges map[string]core.Money

	// latestNav is a generation counter: each navigation takes a token
	// and commits only if no newer navigation started meanwhile.
	latestNav uint64
	version   int64
}

func NewLedgerService(months repo.MonthStore, plans repo.PlanStore, specs repo.CardSpecStore, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		months:     months,
		registry:   NewPlanRegistry(plans, specs),
		projection: NewProjectionEngine(),
		carryover:  NewCarryoverResolver(months),
		settlement: NewSettlement(months, plans),
		amqpClient: amqpClient,
	}
}

// Registry exposes the plan and card-spec surface.
func (s *LedgerService) Registry() *PlanRegistry {
	return s.registry
}

// Open loads the calendar's current month and makes it the open month.
func (s *LedgerService) Open(ctx context.Context) (Snapshot, error) {
	return s.JumpTo(ctx, core.CurrentMonthKey())
}

// CurrentMonth returns the open month's key, or "" when nothing is open.
func (s *LedgerService) CurrentMonth() core.MonthKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.MonthKey
}

// Snapshot returns a copy of the open month and its summary.
func (s *LedgerService) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Snapshot{}, ErrNoOpenMonth
	}
	return Snapshot{Ledger: cloneLedger(s.current), Summary: s.summary}, nil
}

// ChangeMonth moves the cursor by delta months (negative for past).
func (s *LedgerService) ChangeMonth(ctx context.Context, delta int) (Snapshot, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return Snapshot{}, ErrNoOpenMonth
	}
	target := s.current.MonthKey.Add(delta)
	s.mu.Unlock()

	return s.completeNav(ctx, s.beginNav(), target)
}

// JumpTo moves the cursor directly to the given month.
func (s *LedgerService) JumpTo(ctx context.Context, key core.MonthKey) (Snapshot, error) {
	if err := key.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s.completeNav(ctx, s.beginNav(), key)
}

func (s *LedgerService) beginNav() uint64 {
	return atomic.AddUint64(&s.latestNav, 1)
}

// completeNav settles the month being left, loads the target month, and
// commits it as the open month unless a newer navigation started in the
// meantime. A stale navigation's result is discarded entirely.
func (s *LedgerService) completeNav(ctx context.Context, nav uint64, target core.MonthKey) (Snapshot, error) {
	s.mu.Lock()
	leaving := s.current
	s.mu.Unlock()

	if leaving != nil && leaving.MonthKey != target {
		if err := s.settlement.SettleMonth(ctx, leaving.MonthKey); err != nil {
			return Snapshot{}, fmt.Errorf("settle %s: %w", leaving.MonthKey, err)
		}
	}

	ledger, summary, charges, err := s.loadMonth(ctx, target)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if atomic.LoadUint64(&s.latestNav) != nav {
		slog.InfoContext(ctx, "Discarding stale navigation", "month_key", target)
		return Snapshot{}, ErrStaleNavigation
	}
	s.current = ledger
	s.summary = summary
	s.charges = charges
	return Snapshot{Ledger: cloneLedger(ledger), Summary: summary}, nil
}

// loadMonth runs the open pipeline: load, carry over opening cash,
// project fixed expenses when the month has none, compute the summary,
// and persist what the pipeline produced.
func (s *LedgerService) loadMonth(ctx context.Context, key core.MonthKey) (*core.MonthlyLedger, core.MonthSummary, map[string]core.Money, error) {
	ledger, err := s.months.LoadMonth(ctx, key)
	if err != nil {
		return nil, core.MonthSummary{}, nil, fmt.Errorf("load month %s: %w", key, err)
	}

	if err := s.carryover.Resolve(ctx, ledger); err != nil {
		return nil, core.MonthSummary{}, nil, err
	}

	plans, err := s.registry.Plans(ctx)
	if err != nil {
		return nil, core.MonthSummary{}, nil, fmt.Errorf("load plans: %w", err)
	}
	specs, err := s.registry.CardSpecs(ctx)
	if err != nil {
		return nil, core.MonthSummary{}, nil, fmt.Errorf("load card specs: %w", err)
	}

	// No-clobber: projection only fills a month whose fixed list is
	// empty. A month with any instance, even a manually emptied one
	// that kept a single entry, is left alone.
	if len(ledger.FixedExpenses) == 0 {
		if projected := s.projection.Project(key, plans); len(projected) > 0 {
			ledger.FixedExpenses = projected
			if err := s.months.SaveFixedExpenses(ctx, key, projected); err != nil {
				return nil, core.MonthSummary{}, nil, fmt.Errorf("save projected fixed expenses: %w", err)
			}
			slog.InfoContext(ctx, "Projected fixed expenses",
				"month_key", key,
				"instances", len(projected))
		}
	}

	charges := s.projection.ProjectCardCharges(key, specs)
	summary := core.ComputeSummary(ledger, charges)
	core.ApplySummary(ledger, summary)

	if err := s.months.SaveMeta(ctx, key, ledger.Meta()); err != nil {
		return nil, core.MonthSummary{}, nil, fmt.Errorf("save meta: %w", err)
	}
	if len(ledger.Cards) > 0 {
		if err := s.months.SaveCards(ctx, key, ledger.Cards); err != nil {
			return nil, core.MonthSummary{}, nil, fmt.Errorf("save cards: %w", err)
		}
	}

	return ledger, summary, charges, nil
}

// MonthView computes a read-only snapshot of any month without moving
// the cursor or persisting anything. Unmaterialized months show their
// would-be projection.
func (s *LedgerService) MonthView(ctx context.Context, key core.MonthKey) (Snapshot, error) {
	if err := key.Validate(); err != nil {
		return Snapshot{}, err
	}

	ledger, err := s.months.LoadMonth(ctx, key)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load month %s: %w", key, err)
	}
	if !ledger.OpeningCashSet {
		if closing, ok, err := s.months.LoadClosingCash(ctx, key.Prev()); err != nil {
			return Snapshot{}, err
		} else if ok {
			ledger.OpeningCash = closing
		}
	}

	plans, err := s.registry.Plans(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load plans: %w", err)
	}
	specs, err := s.registry.CardSpecs(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load card specs: %w", err)
	}

	if len(ledger.FixedExpenses) == 0 {
		ledger.FixedExpenses = s.projection.Project(key, plans)
	}

	charges := s.projection.ProjectCardCharges(key, specs)
	summary := core.ComputeSummary(ledger, charges)
	core.ApplySummary(ledger, summary)
	return Snapshot{Ledger: ledger, Summary: summary}, nil
}

// SubmitEntry adds an income entry to the open month.
func (s *LedgerService) SubmitEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return core.Entry{}, ErrNoOpenMonth
	}
	if e.Date.MonthKey() != s.current.MonthKey {
		return core.Entry{}, ErrWrongMonth
	}

	s.current.Entries = append(s.current.Entries, e)
	if err := s.months.SaveEntries(ctx, s.current.MonthKey, s.current.Entries); err != nil {
		return core.Entry{}, fmt.Errorf("save entries: %w", err)
	}
	if err := s.refreshLocked(ctx); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

// SubmitVariableExpense adds a variable expense to the open month.
func (s *LedgerService) SubmitVariableExpense(ctx context.Context, v core.VariableExpense) (core.VariableExpense, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if err := v.Validate(); err != nil {
		return core.VariableExpense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return core.VariableExpense{}, ErrNoOpenMonth
	}
	if v.Date.MonthKey() != s.current.MonthKey {
		return core.VariableExpense{}, ErrWrongMonth
	}

	s.current.VariableExpenses = append(s.current.VariableExpenses, v)
	if err := s.months.SaveVariableExpenses(ctx, s.current.MonthKey, s.current.VariableExpenses); err != nil {
		return core.VariableExpense{}, fmt.Errorf("save variable expenses: %w", err)
	}
	if err := s.refreshLocked(ctx); err != nil {
		return core.VariableExpense{}, err
	}
	return v, nil
}

// SubmitSingleFixedExpense adds a one-off fixed expense to the open
// month only. It never creates a master plan.
func (s *LedgerService) SubmitSingleFixedExpense(ctx context.Context, inst core.FixedExpenseInstance) (core.FixedExpenseInstance, error) {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	inst.MasterID = ""
	inst.IsProjected = false
	inst.InstallmentIndex = 0
	inst.TotalInstallments = 0
	if err := inst.Validate(); err != nil {
		return core.FixedExpenseInstance{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return core.FixedExpenseInstance{}, ErrNoOpenMonth
	}

	s.current.FixedExpenses = append(s.current.FixedExpenses, inst)
	if err := s.months.SaveFixedExpenses(ctx, s.current.MonthKey, s.current.FixedExpenses); err != nil {
		return core.FixedExpenseInstance{}, fmt.Errorf("save fixed expenses: %w", err)
	}
	if err := s.refreshLocked(ctx); err != nil {
		return core.FixedExpenseInstance{}, err
	}
	return inst, nil
}

// SubmitPlan creates a master plan and materializes its instance into
// the open month when the plan is due there.
func (s *LedgerService) SubmitPlan(ctx context.Context, plan core.MasterPlan) (core.MasterPlan, error) {
	created, err := s.registry.CreatePlan(ctx, plan)
	if err != nil {
		return core.MasterPlan{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return created, nil
	}

	if inst, ok := s.projection.instanceFor(s.current.MonthKey, created); ok {
		s.current.FixedExpenses = append(s.current.FixedExpenses, inst)
		if err := s.months.SaveFixedExpenses(ctx, s.current.MonthKey, s.current.FixedExpenses); err != nil {
			return core.MasterPlan{}, fmt.Errorf("save fixed expenses: %w", err)
		}
	}
	if err := s.refreshLocked(ctx); err != nil {
		return core.MasterPlan{}, err
	}
	return created, nil
}

// SubmitCardSpec creates a card installment spec and folds its charge
// into the open month's card statements.
func (s *LedgerService) SubmitCardSpec(ctx context.Context, spec core.CardSpec) (core.CardSpec, error) {
	created, err := s.registry.CreateCardSpec(ctx, spec)
	if err != nil {
		return core.CardSpec{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return created, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		return core.CardSpec{}, err
	}
	return created, nil
}

// RemoveCardSpec deletes a card installment spec and recomputes the
// open month's card statements.
func (s *LedgerService) RemoveCardSpec(ctx context.Context, id string) error {
	if err := s.registry.DeleteCardSpec(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.refreshLocked(ctx)
}

// TogglePaid flips a fixed instance between pending and paid. Paying
// moves the instance's value into the month's outflows; a card-paid
// instance accrues to its card statement instead of cash.
func (s *LedgerService) TogglePaid(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false, ErrNoOpenMonth
	}

	inst := s.current.FindFixedExpense(id)
	if inst == nil {
		return false, ErrNotFound
	}
	inst.IsPaid = !inst.IsPaid

	if err := s.months.SaveFixedExpenses(ctx, s.current.MonthKey, s.current.FixedExpenses); err != nil {
		return false, fmt.Errorf("save fixed expenses: %w", err)
	}
	if err := s.refreshLocked(ctx); err != nil {
		return false, err
	}
	return inst.IsPaid, nil
}

// EditInstanceValue overrides one instance's value for this month only.
// The master plan keeps its own value for future projections.
func (s *LedgerService) EditInstanceValue(ctx context.Context, id string, value core.Money) error {
	if err := value.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoOpenMonth
	}

	inst := s.current.FindFixedExpense(id)
	if inst == nil {
		return ErrNotFound
	}
	inst.Value = value

	if err := s.months.SaveFixedExpenses(ctx, s.current.MonthKey, s.current.FixedExpenses); err != nil {
		return fmt.Errorf("save fixed expenses: %w", err)
	}
	return s.refreshLocked(ctx)
}

// SetCardOpeningBalance sets a card's statement opening balance for the
// open month.
func (s *LedgerService) SetCardOpeningBalance(ctx context.Context, cardID string, amount core.Money) error {
	if cardID == "" {
		return core.ErrEmptyCardID
	}
	if amount.Cents < 0 {
		return core.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoOpenMonth
	}

	state := s.current.Cards[cardID]
	state.OpeningBalance = amount
	s.current.Cards[cardID] = state

	if err := s.months.SaveCards(ctx, s.current.MonthKey, s.current.Cards); err != nil {
		return fmt.Errorf("save cards: %w", err)
	}
	return s.refreshLocked(ctx)
}

// SetOpeningCash manually overrides the open month's opening cash,
// replacing whatever the carryover pinned.
func (s *LedgerService) SetOpeningCash(ctx context.Context, amount core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoOpenMonth
	}

	s.current.OpeningCash = amount
	s.current.OpeningCashSet = true
	return s.refreshLocked(ctx)
}

// RemoveItem deletes an entry, variable expense, or fixed instance by
// ID from the open month.
func (s *LedgerService) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoOpenMonth
	}
	key := s.current.MonthKey

	for i, e := range s.current.Entries {
		if e.ID == id {
			s.current.Entries = append(s.current.Entries[:i], s.current.Entries[i+1:]...)
			if err := s.months.SaveEntries(ctx, key, s.current.Entries); err != nil {
				return fmt.Errorf("save entries: %w", err)
			}
			return s.refreshLocked(ctx)
		}
	}
	for i, v := range s.current.VariableExpenses {
		if v.ID == id {
			s.current.VariableExpenses = append(s.current.VariableExpenses[:i], s.current.VariableExpenses[i+1:]...)
			if err := s.months.SaveVariableExpenses(ctx, key, s.current.VariableExpenses); err != nil {
				return fmt.Errorf("save variable expenses: %w", err)
			}
			return s.refreshLocked(ctx)
		}
	}
	for i, f := range s.current.FixedExpenses {
		if f.ID == id {
			s.current.FixedExpenses = append(s.current.FixedExpenses[:i], s.current.FixedExpenses[i+1:]...)
			if err := s.months.SaveFixedExpenses(ctx, key, s.current.FixedExpenses); err != nil {
				return fmt.Errorf("save fixed expenses: %w", err)
			}
			return s.refreshLocked(ctx)
		}
	}
	return ErrNotFound
}

// DeletePlan removes a master plan and its instances from the open
// month. Past months keep what was already materialized.
func (s *LedgerService) DeletePlan(ctx context.Context, id string) error {
	if err := s.registry.DeletePlan(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}

	kept := s.current.FixedExpenses[:0]
	for _, f := range s.current.FixedExpenses {
		if f.MasterID == id {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == len(s.current.FixedExpenses) {
		return nil
	}
	s.current.FixedExpenses = kept

	if err := s.months.SaveFixedExpenses(ctx, s.current.MonthKey, s.current.FixedExpenses); err != nil {
		return fmt.Errorf("save fixed expenses: %w", err)
	}
	return s.refreshLocked(ctx)
}

// refreshLocked recomputes the open month's summary after a mutation,
// persists the derived meta and card state, and publishes a
// month-changed notification. Callers must hold s.mu.
func (s *LedgerService) refreshLocked(ctx context.Context) error {
	specs, err := s.registry.CardSpecs(ctx)
	if err != nil {
		return fmt.Errorf("load card specs: %w", err)
	}
	s.charges = s.projection.ProjectCardCharges(s.current.MonthKey, specs)
	s.summary = core.ComputeSummary(s.current, s.charges)
	core.ApplySummary(s.current, s.summary)

	if err := s.months.SaveMeta(ctx, s.current.MonthKey, s.current.Meta()); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if len(s.current.Cards) > 0 {
		if err := s.months.SaveCards(ctx, s.current.MonthKey, s.current.Cards); err != nil {
			return fmt.Errorf("save cards: %w", err)
		}
	}

	s.version++
	s.publishMonthChanged(ctx, s.current.MonthKey, s.version)
	return nil
}

// publishMonthChanged notifies the export worker. Failures are logged,
// never surfaced: the mutation is already persisted locally.
func (s *LedgerService) publishMonthChanged(ctx context.Context, key core.MonthKey, version int64) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping month changed message")
		return
	}
	if err := s.amqpClient.PublishMonthChanged(ctx, string(key), version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish month changed message",
			"month_key", key,
			"version", version,
			"error", err)
	}
}

// Close settles the open month and releases the AMQP connection.
func (s *LedgerService) Close(ctx context.Context) error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	var errs []error
	if current != nil {
		if err := s.settlement.SettleMonth(ctx, current.MonthKey); err != nil {
			errs = append(errs, fmt.Errorf("settle %s: %w", current.MonthKey, err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}

func cloneLedger(l *core.MonthlyLedger) *core.MonthlyLedger {
	out := *l
	out.Entries = append([]core.Entry(nil), l.Entries...)
	out.VariableExpenses = append([]core.VariableExpense(nil), l.VariableExpenses...)
	out.FixedExpenses = append([]core.FixedExpenseInstance(nil), l.FixedExpenses...)
	out.Cards = make(map[string]core.CardState, len(l.Cards))
	maps.Copy(out.Cards, l.Cards)
	return &out
}
