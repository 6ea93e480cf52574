package http

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"caixa/internal/core"
)

// handleExportCSV streams one month's ledger as CSV: a summary block
// followed by the itemized entries, variable expenses, fixed expenses,
// and card statements.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		raw = string(core.CurrentMonthKey())
	}
	key, err := core.ParseMonthKey(raw)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	snap, err := s.ledger.MonthView(r.Context(), key)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("caixa-%s.csv", key)))

	cw := csv.NewWriter(w)
	if err := writeMonthCSV(cw, snap.Ledger, snap.Summary); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed",
			"month_key", key,
			"error", err)
	}
}

func writeMonthCSV(cw *csv.Writer, ledger *core.MonthlyLedger, summary core.MonthSummary) error {
	rows := [][]string{
		{"Mês", string(summary.MonthKey)},
		{"Receita", summary.TotalIncome.Decimal()},
		{"Despesas", summary.TotalExpenses.Decimal()},
		{"Lucro", summary.NetProfit.Decimal()},
		{"Caixa inicial", summary.OpeningCash.Decimal()},
		{"Caixa final", summary.ClosingCash.Decimal()},
		{"Km", strconv.FormatFloat(summary.TotalDistanceKm, 'f', 1, 64)},
		{"Horas", strconv.FormatFloat(summary.TotalHours, 'f', 1, 64)},
		{},
		{"Lançamentos"},
		{"Data", "Plataforma", "Bruto", "Km", "Horas", "Combustível", "Outros"},
	}
	for _, e := range ledger.Entries {
		rows = append(rows, []string{
			e.Date.Format("2006-01-02"),
			e.Platform,
			e.Gross.Decimal(),
			strconv.FormatFloat(e.DistanceKm, 'f', 1, 64),
			strconv.FormatFloat(e.Hours, 'f', 1, 64),
			e.FuelCost.Decimal(),
			e.OtherCost.Decimal(),
		})
	}

	rows = append(rows, nil,
		[]string{"Despesas variáveis"},
		[]string{"Data", "Categoria", "Descrição", "Pagamento", "Valor"})
	for _, v := range ledger.VariableExpenses {
		rows = append(rows, []string{
			v.Date.Format("2006-01-02"),
			v.Category,
			v.Description,
			paymentLabel(v.Payment),
			v.Value.Decimal(),
		})
	}

	rows = append(rows, nil,
		[]string{"Despesas fixas"},
		[]string{"Descrição", "Categoria", "Pagamento", "Valor", "Parcela", "Pago"})
	for _, f := range ledger.FixedExpenses {
		installment := ""
		if f.TotalInstallments > 0 {
			installment = fmt.Sprintf("%d/%d", f.InstallmentIndex, f.TotalInstallments)
		}
		rows = append(rows, []string{
			f.Description,
			f.Category,
			paymentLabel(f.Payment),
			f.Value.Decimal(),
			installment,
			boolLabel(f.IsPaid),
		})
	}

	rows = append(rows, nil,
		[]string{"Cartões"},
		[]string{"Cartão", "Saldo anterior", "Fatura do mês", "Total"})
	for _, c := range summary.Cards {
		rows = append(rows, []string{
			c.CardID,
			c.OpeningBalance.Decimal(),
			c.MonthlyCharge.Decimal(),
			c.StatementTotal.Decimal(),
		})
	}

	for _, row := range rows {
		if len(row) == 0 {
			row = []string{""}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func paymentLabel(p core.PaymentMethod) string {
	if p.IsCard() {
		return "cartão:" + p.CardID
	}
	return "dinheiro/pix"
}

func boolLabel(b bool) string {
	if b {
		return "sim"
	}
	return "não"
}
