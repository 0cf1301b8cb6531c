package analysis

import (
	"fmt"
	"sort"
	"strconv"
)

const (
	assumedInflation = 1.05
	healthyRatio     = 20
)

// Report is the locally computed analysis. Its shape follows the upstream
// service's response so clients render either the same way.
type Report struct {
	Overview        Overview          `json:"overview"`
	Analysis        Summary           `json:"analysis"`
	GoalFeasibility []GoalAssessment  `json:"goal_feasibility"`
	Enhancements    Enhancements      `json:"enhancements"`
	AdvisorSummary  map[string]string `json:"advisor_summary"`
	StepByStepPlan  []string          `json:"step_by_step_plan"`
}

type Overview struct {
	MonthlyIncome   float64 `json:"monthly_income"`
	MonthlyExpenses float64 `json:"monthly_expenses"`
	Goals           []Goal  `json:"goals"`
	TargetMonths    int     `json:"target_months"`
}

type Summary struct {
	MonthlySavings   float64                    `json:"monthly_savings"`
	SavingRatio      string                     `json:"saving_ratio"`
	Grade            string                     `json:"grade"`
	Tip              string                     `json:"tip"`
	CategoryInsights map[string]CategoryInsight `json:"category_insights"`
}

type GoalAssessment struct {
	Goal        string      `json:"goal"`
	Feasibility Feasibility `json:"feasibility"`
}

type Feasibility struct {
	EstimatedSavings float64 `json:"estimated_savings"`
	GoalCost         float64 `json:"goal_cost"`
	Feasibility      string  `json:"feasibility"`
	RiskLevel        string  `json:"risk_level"`
	Message          string  `json:"message"`
}

type Enhancements struct {
	ProjectedSavings          float64 `json:"projected_savings"`
	InflationAdjustedGoalCost float64 `json:"inflation_adjusted_goal_cost"`
	BehavioralInsight         string  `json:"behavioral_insight"`
	TermExplanation           string  `json:"term_explanation"`
	FAQ                       string  `json:"faq"`
	SavingsChart              *string `json:"savings_chart"`
}

// RuleBased builds the fallback report. req must already be validated.
func RuleBased(req Request, insights map[string]CategoryInsight) Report {
	monthly := req.Income - req.Expenses
	projected := monthly * float64(req.DurationMonths)
	ratio := strconv.FormatFloat(monthly/req.Income*100, 'f', 2, 64)
	if insights == nil {
		insights = map[string]CategoryInsight{}
	}

	grade := "Needs Improvement"
	if monthly > 0 {
		grade = "Good"
	}

	goals := make([]GoalAssessment, 0, len(req.Goals))
	for _, g := range req.Goals {
		f := Feasibility{
			EstimatedSavings: projected,
			GoalCost:         g.Cost,
			Feasibility:      "Not Feasible",
			RiskLevel:        "Moderate",
			Message:          fmt.Sprintf("You may need to increase savings or extend the timeline for %s.", g.Description),
		}
		if projected >= g.Cost {
			f.Feasibility = "Feasible"
			f.Message = fmt.Sprintf("Your goal of %s is achievable within %d months.", g.Description, req.DurationMonths)
		}
		goals = append(goals, GoalAssessment{Goal: g.Description, Feasibility: f})
	}

	top := topPriorityGoal(req.Goals)
	focus := largestCategory(req.SpendingCategories)

	return Report{
		Overview: Overview{
			MonthlyIncome:   req.Income,
			MonthlyExpenses: req.Expenses,
			Goals:           req.Goals,
			TargetMonths:    req.DurationMonths,
		},
		Analysis: Summary{
			MonthlySavings:   monthly,
			SavingRatio:      ratio,
			Grade:            grade,
			Tip:              "Ensure monthly savings are positive to achieve your goals.",
			CategoryInsights: insights,
		},
		GoalFeasibility: goals,
		Enhancements: Enhancements{
			ProjectedSavings:          projected,
			InflationAdjustedGoalCost: top.Cost * assumedInflation,
			BehavioralInsight:         "Regularly review your spending to identify savings opportunities.",
			TermExplanation:           "Savings Ratio: The percentage of your income that you save each month.",
			FAQ:                       "How can I improve my savings? Reduce discretionary spending and automate savings.",
		},
		AdvisorSummary: map[string]string{
			"rule_based": fmt.Sprintf(
				"**Financial Health**: Your savings ratio is %s%%.\n* Aim to save at least %d%% of your income.\n* Prioritize high-priority goals like %s.\n**Action Plan**: Review your %s category to cut costs.",
				ratio, healthyRatio, top.Description, focus),
		},
		StepByStepPlan: []string{
			fmt.Sprintf("Set up a monthly budget to track %s.", focus),
			fmt.Sprintf("Save %s %.2f monthly towards %s.", req.Currency, monthly, top.Description),
			"Review progress every 3 months.",
		},
	}
}

// topPriorityGoal returns the goal with the lowest priority number, keeping
// submission order on ties.
func topPriorityGoal(goals []Goal) Goal {
	best := goals[0]
	for _, g := range goals[1:] {
		if g.Priority < best.Priority {
			best = g
		}
	}
	return best
}

// largestCategory names the highest-spend category, or "spending" when none.
func largestCategory(categories map[string]float64) string {
	if len(categories) == 0 {
		return "spending"
	}
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	best := names[0]
	for _, name := range names[1:] {
		if categories[name] > categories[best] {
			best = name
		}
	}
	return best
}
