package analysis

import (
	"context"
	"errors"

	"github.com/hongminglow/smartsave/internal/logging"
)

// Source says which path produced a Result.
type Source string

const (
	SourceUpstream Source = "upstream"
	SourceFallback Source = "fallback"
)

// Result is a successful analysis. Body is the upstream JSON object for
// SourceUpstream and a Report for SourceFallback.
type Result struct {
	Source Source
	Body   any
	// UpstreamErr records why the fallback was used.
	UpstreamErr error
}

// Upstream is the part of Client the Analyzer needs.
type Upstream interface {
	Analyze(ctx context.Context, payload any) (map[string]any, error)
}

// Analyzer runs an analysis against the upstream service, falling back to
// the rule-based report when the service fails.
type Analyzer struct {
	upstream Upstream
	log      logging.Logger
}

// NewAnalyzer returns an Analyzer.
func NewAnalyzer(upstream Upstream, log logging.Logger) *Analyzer {
	return &Analyzer{upstream: upstream, log: log}
}

// Analyze validates req, folds in the optional statement and returns either
// the upstream result or the local fallback. Only invalid input is an error.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	var insights map[string]CategoryInsight
	if req.Statement != nil {
		summary, err := ParseStatement(req.Statement)
		if err != nil {
			return Result{}, err
		}
		if summary.MonthlyIncome <= 0 {
			return Result{}, errors.Join(ErrInvalidRequest, errors.New("transaction_file contains no income"))
		}
		req.Income = summary.MonthlyIncome
		req.Expenses = summary.MonthlyExpenses
		req.SpendingCategories = summary.CategoryTotals
		insights = summary.Insights
	}

	body, err := a.upstream.Analyze(ctx, upstreamPayload{
		Income:             req.Income,
		Expenses:           req.Expenses,
		Goals:              req.Goals,
		DurationMonths:     req.DurationMonths,
		Currency:           req.Currency,
		SpendingCategories: req.SpendingCategories,
	})
	if err != nil {
		a.log.Warn(ctx, "analysis service failed; using rule-based fallback", "error", err)
		return Result{Source: SourceFallback, Body: RuleBased(req, insights), UpstreamErr: err}, nil
	}

	if len(insights) > 0 {
		section, ok := body["analysis"].(map[string]any)
		if !ok {
			section = map[string]any{}
			body["analysis"] = section
		}
		section["category_insights"] = insights
	}
	return Result{Source: SourceUpstream, Body: body}, nil
}
