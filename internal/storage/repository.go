package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"caixa/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteRepository persists months, master plans, and card specs in a
// local SQLite database. Every Save* replaces the month's sub-object
// wholesale inside a transaction, mirroring the store ports.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) LoadMonth(ctx context.Context, key core.MonthKey) (*core.MonthlyLedger, error) {
	l := core.NewMonthlyLedger(key)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entry_date, platform, gross_cents, distance_km, hours, fuel_cost_cents, other_cost_cents
		FROM entries WHERE month_key = ? ORDER BY entry_date, id`, string(key))
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e core.Entry
		var date string
		if err := rows.Scan(&e.ID, &date, &e.Platform, &e.Gross.Cents,
			&e.DistanceKm, &e.Hours, &e.FuelCost.Cents, &e.OtherCost.Cents); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse entry date %q: %w", date, err)
		}
		e.Date = core.Date{Time: t}
		l.Entries = append(l.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	vrows, err := r.db.QueryContext(ctx, `
		SELECT id, expense_date, category, description, payment_kind, card_id, value_cents
		FROM variable_expenses WHERE month_key = ? ORDER BY expense_date, id`, string(key))
	if err != nil {
		return nil, fmt.Errorf("query variable expenses: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var v core.VariableExpense
		var date, kind, cardID string
		if err := vrows.Scan(&v.ID, &date, &v.Category, &v.Description, &kind, &cardID, &v.Value.Cents); err != nil {
			return nil, fmt.Errorf("scan variable expense: %w", err)
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", date, err)
		}
		v.Date = core.Date{Time: t}
		v.Payment = core.PaymentMethod{Kind: core.PaymentKind(kind), CardID: cardID}
		l.VariableExpenses = append(l.VariableExpenses, v)
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variable expenses: %w", err)
	}

	frows, err := r.db.QueryContext(ctx, `
		SELECT id, master_id, description, category, payment_kind, card_id, value_cents,
		       installment_index, total_installments, is_projected, is_paid
		FROM fixed_expenses WHERE month_key = ? ORDER BY description, id`, string(key))
	if err != nil {
		return nil, fmt.Errorf("query fixed expenses: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var f core.FixedExpenseInstance
		var kind, cardID string
		if err := frows.Scan(&f.ID, &f.MasterID, &f.Description, &f.Category, &kind, &cardID,
			&f.Value.Cents, &f.InstallmentIndex, &f.TotalInstallments, &f.IsProjected, &f.IsPaid); err != nil {
			return nil, fmt.Errorf("scan fixed expense: %w", err)
		}
		f.Payment = core.PaymentMethod{Kind: core.PaymentKind(kind), CardID: cardID}
		l.FixedExpenses = append(l.FixedExpenses, f)
	}
	if err := frows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixed expenses: %w", err)
	}

	crows, err := r.db.QueryContext(ctx, `
		SELECT card_id, opening_balance_cents, monthly_charge_cents
		FROM card_states WHERE month_key = ?`, string(key))
	if err != nil {
		return nil, fmt.Errorf("query card states: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var cardID string
		var state core.CardState
		if err := crows.Scan(&cardID, &state.OpeningBalance.Cents, &state.MonthlyCharge.Cents); err != nil {
			return nil, fmt.Errorf("scan card state: %w", err)
		}
		l.Cards[cardID] = state
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card states: %w", err)
	}

	var meta core.MonthMeta
	err = r.db.QueryRowContext(ctx, `
		SELECT opening_cash_cents, opening_cash_set, closing_cash_cents
		FROM month_meta WHERE month_key = ?`, string(key)).
		Scan(&meta.OpeningCash.Cents, &meta.OpeningCashSet, &meta.ClosingCash.Cents)
	switch err {
	case nil:
		l.OpeningCash = meta.OpeningCash
		l.OpeningCashSet = meta.OpeningCashSet
		l.ClosingCash = meta.ClosingCash
	case sql.ErrNoRows:
		// Month never opened: empty-default ledger.
	default:
		return nil, fmt.Errorf("query month meta: %w", err)
	}

	return l, nil
}

// replaceMonthRows deletes a month's rows in one table and re-inserts
// them inside a single transaction.
func (r *SQLiteRepository) replaceMonthRows(ctx context.Context, table string, key core.MonthKey, insert func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE month_key = ?", string(key)); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveEntries(ctx context.Context, key core.MonthKey, entries []core.Entry) error {
	return r.replaceMonthRows(ctx, "entries", key, func(tx *sql.Tx) error {
		for _, e := range entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO entries (id, month_key, entry_date, platform, gross_cents, distance_km, hours, fuel_cost_cents, other_cost_cents)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.ID, string(key), e.Date.Format(dateLayout), e.Platform, e.Gross.Cents,
				e.DistanceKm, e.Hours, e.FuelCost.Cents, e.OtherCost.Cents)
			if err != nil {
				return fmt.Errorf("insert entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SaveVariableExpenses(ctx context.Context, key core.MonthKey, expenses []core.VariableExpense) error {
	return r.replaceMonthRows(ctx, "variable_expenses", key, func(tx *sql.Tx) error {
		for _, v := range expenses {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO variable_expenses (id, month_key, expense_date, category, description, payment_kind, card_id, value_cents)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				v.ID, string(key), v.Date.Format(dateLayout), v.Category, v.Description,
				string(v.Payment.Kind), v.Payment.CardID, v.Value.Cents)
			if err != nil {
				return fmt.Errorf("insert variable expense %s: %w", v.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SaveFixedExpenses(ctx context.Context, key core.MonthKey, fixed []core.FixedExpenseInstance) error {
	return r.replaceMonthRows(ctx, "fixed_expenses", key, func(tx *sql.Tx) error {
		for _, f := range fixed {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO fixed_expenses (id, month_key, master_id, description, category, payment_kind, card_id,
				                            value_cents, installment_index, total_installments, is_projected, is_paid)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				f.ID, string(key), f.MasterID, f.Description, f.Category,
				string(f.Payment.Kind), f.Payment.CardID, f.Value.Cents,
				f.InstallmentIndex, f.TotalInstallments, f.IsProjected, f.IsPaid)
			if err != nil {
				return fmt.Errorf("insert fixed expense %s: %w", f.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SaveCards(ctx context.Context, key core.MonthKey, cards map[string]core.CardState) error {
	return r.replaceMonthRows(ctx, "card_states", key, func(tx *sql.Tx) error {
		for cardID, state := range cards {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO card_states (month_key, card_id, opening_balance_cents, monthly_charge_cents)
				VALUES (?, ?, ?, ?)`,
				string(key), cardID, state.OpeningBalance.Cents, state.MonthlyCharge.Cents)
			if err != nil {
				return fmt.Errorf("insert card state %s: %w", cardID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SaveMeta(ctx context.Context, key core.MonthKey, meta core.MonthMeta) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO month_meta (month_key, opening_cash_cents, opening_cash_set, closing_cash_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(month_key) DO UPDATE SET
			opening_cash_cents = excluded.opening_cash_cents,
			opening_cash_set = excluded.opening_cash_set,
			closing_cash_cents = excluded.closing_cash_cents`,
		string(key), meta.OpeningCash.Cents, meta.OpeningCashSet, meta.ClosingCash.Cents)
	if err != nil {
		return fmt.Errorf("upsert month meta: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadClosingCash(ctx context.Context, key core.MonthKey) (core.Money, bool, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT closing_cash_cents FROM month_meta WHERE month_key = ?", string(key)).Scan(&cents)
	switch err {
	case nil:
		return core.Money{Cents: cents}, true, nil
	case sql.ErrNoRows:
		return core.Money{}, false, nil
	default:
		return core.Money{}, false, fmt.Errorf("query closing cash: %w", err)
	}
}

func (r *SQLiteRepository) LoadPlans(ctx context.Context) (map[string]core.MasterPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, category, payment_kind, card_id, value_cents,
		       recurrence, total_installments, paid_installments, start_month, due_day
		FROM master_plans`)
	if err != nil {
		return nil, fmt.Errorf("query master plans: %w", err)
	}
	defer rows.Close()

	plans := make(map[string]core.MasterPlan)
	for rows.Next() {
		var p core.MasterPlan
		var kind, cardID, recurrence, startMonth string
		if err := rows.Scan(&p.ID, &p.Description, &p.Category, &kind, &cardID, &p.Value.Cents,
			&recurrence, &p.TotalInstallments, &p.PaidInstallments, &startMonth, &p.DueDay); err != nil {
			return nil, fmt.Errorf("scan master plan: %w", err)
		}
		p.Payment = core.PaymentMethod{Kind: core.PaymentKind(kind), CardID: cardID}
		p.Recurrence = core.Recurrence(recurrence)
		p.StartMonth = core.MonthKey(startMonth)
		plans[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate master plans: %w", err)
	}
	return plans, nil
}

func (r *SQLiteRepository) SavePlans(ctx context.Context, plans map[string]core.MasterPlan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM master_plans"); err != nil {
		return fmt.Errorf("clear master plans: %w", err)
	}
	for _, p := range plans {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO master_plans (id, description, category, payment_kind, card_id, value_cents,
			                          recurrence, total_installments, paid_installments, start_month, due_day)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Description, p.Category, string(p.Payment.Kind), p.Payment.CardID, p.Value.Cents,
			string(p.Recurrence), p.TotalInstallments, p.PaidInstallments, string(p.StartMonth), p.DueDay)
		if err != nil {
			return fmt.Errorf("insert master plan %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadCardSpecs(ctx context.Context) ([]core.CardSpec, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, card_id, description, total_value_cents, total_installments, start_month, due_day
		FROM card_specs ORDER BY start_month, id`)
	if err != nil {
		return nil, fmt.Errorf("query card specs: %w", err)
	}
	defer rows.Close()

	var specs []core.CardSpec
	for rows.Next() {
		var s core.CardSpec
		var startMonth string
		if err := rows.Scan(&s.ID, &s.CardID, &s.Description, &s.TotalValue.Cents,
			&s.TotalInstallments, &startMonth, &s.DueDay); err != nil {
			return nil, fmt.Errorf("scan card spec: %w", err)
		}
		s.StartMonth = core.MonthKey(startMonth)
		specs = append(specs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card specs: %w", err)
	}
	return specs, nil
}

func (r *SQLiteRepository) SaveCardSpecs(ctx context.Context, specs []core.CardSpec) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM card_specs"); err != nil {
		return fmt.Errorf("clear card specs: %w", err)
	}
	for _, s := range specs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO card_specs (id, card_id, description, total_value_cents, total_installments, start_month, due_day)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.CardID, s.Description, s.TotalValue.Cents, s.TotalInstallments, string(s.StartMonth), s.DueDay)
		if err != nil {
			return fmt.Errorf("insert card spec %s: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
