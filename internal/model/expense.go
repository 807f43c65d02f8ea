package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single spending record owned by a user.
type Expense struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description *string         `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
}

// ExpensePatch holds the fields of a partial expense update.
// Nil fields are left untouched.
type ExpensePatch struct {
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	Date        *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Amount == nil && p.Category == nil && p.Description == nil && p.Date == nil
}

// Apply copies the set fields of the patch onto e.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.Date != nil {
		e.Date = p.Date.UTC()
	}
}

// ExpenseFilter narrows an expense listing.
// Zero values mean "no constraint".
type ExpenseFilter struct {
	Categories []string
	StartDate  *time.Time
	EndDate    *time.Time
}

// Page describes a 1-based page request.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}

// PageCount returns how many pages total items span.
func (p Page) PageCount(total int) int {
	if p.PerPage <= 0 || total <= 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}

// CategoryTotal is the summed spend of one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int64
}

// MonthlyTotal is the summed spend of one calendar month, keyed "YYYY-MM".
type MonthlyTotal struct {
	Month string
	Total decimal.Decimal
}

// CategoryAverage is the mean expense amount of one category.
type CategoryAverage struct {
	Category string
	Average  decimal.Decimal
}
