package analysis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const monthsPerStatement = 12

// CategoryInsight summarises spending in one category.
type CategoryInsight struct {
	Amount     float64 `json:"amount"`
	Percentage string  `json:"percentage"`
	Tip        string  `json:"tip"`
}

// StatementSummary is what a yearly transaction export contributes to an analysis.
type StatementSummary struct {
	MonthlyIncome   float64
	MonthlyExpenses float64
	CategoryTotals  map[string]float64
	Insights        map[string]CategoryInsight
}

// ParseStatement reads the first sheet of an xlsx export with the columns
// Date, Description, Amount, Category and Type (Income or Expense).
func ParseStatement(r io.Reader) (StatementSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return StatementSummary{}, fmt.Errorf("%w: transaction_file is not a readable xlsx workbook", ErrInvalidRequest)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return StatementSummary{}, fmt.Errorf("%w: transaction_file has no sheets", ErrInvalidRequest)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return StatementSummary{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return StatementSummary{}, fmt.Errorf("%w: transaction_file is empty", ErrInvalidRequest)
	}

	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"amount", "type"} {
		if _, ok := cols[required]; !ok {
			return StatementSummary{}, fmt.Errorf("%w: transaction_file lacks a %q column", ErrInvalidRequest, required)
		}
	}

	var income, expenses float64
	totals := map[string]float64{}
	for _, row := range rows[1:] {
		amount, err := parseAmount(cell(row, cols["amount"]))
		if err != nil {
			continue
		}
		category := "Other"
		if idx, ok := cols["category"]; ok && cell(row, idx) != "" {
			category = cell(row, idx)
		}
		switch cell(row, cols["type"]) {
		case "Income":
			income += amount
		case "Expense":
			expenses += amount
			totals[category] += amount
		}
	}

	return StatementSummary{
		MonthlyIncome:   income / monthsPerStatement,
		MonthlyExpenses: expenses / monthsPerStatement,
		CategoryTotals:  totals,
		Insights:        insights(totals, expenses),
	}, nil
}

func insights(totals map[string]float64, expenses float64) map[string]CategoryInsight {
	out := make(map[string]CategoryInsight, len(totals))
	if expenses == 0 {
		return out
	}
	for category, amount := range totals {
		pct := amount / expenses * 100
		tip := "Maintain current spending."
		if pct > 30 {
			tip = fmt.Sprintf("Consider reducing spending in %s to improve savings.", category)
		}
		out[category] = CategoryInsight{Amount: amount, Percentage: strconv.FormatFloat(pct, 'f', 2, 64), Tip: tip}
	}
	return out
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
