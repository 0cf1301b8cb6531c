// Package analysis fronts the external financial-analysis service and
// produces a local rule-based report when that service cannot answer.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidRequest marks input that failed validation.
var ErrInvalidRequest = errors.New("invalid analysis request")

// Goal is one savings target.
type Goal struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Priority    int     `json:"priority"`
}

// Request is a validated analysis submission.
type Request struct {
	Income             float64
	Expenses           float64
	Goals              []Goal
	DurationMonths     int
	Currency           string
	SpendingCategories map[string]float64
	// Statement is an optional xlsx export of transactions.
	Statement io.Reader
}

// Validate reports the first violated constraint.
func (r *Request) Validate() error {
	switch {
	case r.Income <= 0:
		return fmt.Errorf("%w: income must be a positive number", ErrInvalidRequest)
	case r.Expenses <= 0:
		return fmt.Errorf("%w: expenses must be a positive number", ErrInvalidRequest)
	case r.DurationMonths <= 0:
		return fmt.Errorf("%w: duration_months must be a positive integer", ErrInvalidRequest)
	case len(r.Goals) == 0:
		return fmt.Errorf("%w: goals must be a non-empty array", ErrInvalidRequest)
	}
	for i, g := range r.Goals {
		if strings.TrimSpace(g.Description) == "" {
			return fmt.Errorf("%w: goals[%d].description is required", ErrInvalidRequest, i)
		}
		if g.Cost <= 0 {
			return fmt.Errorf("%w: goals[%d].cost must be positive", ErrInvalidRequest, i)
		}
	}
	if strings.TrimSpace(r.Currency) == "" {
		r.Currency = "INR"
	}
	if r.SpendingCategories == nil {
		r.SpendingCategories = map[string]float64{}
	}
	return nil
}

// upstreamPayload is the body sent to the analysis service.
type upstreamPayload struct {
	Income             float64            `json:"income"`
	Expenses           float64            `json:"expenses"`
	Goals              []Goal             `json:"goals"`
	DurationMonths     int                `json:"duration_months"`
	Currency           string             `json:"currency"`
	SpendingCategories map[string]float64 `json:"spending_categories"`
}
