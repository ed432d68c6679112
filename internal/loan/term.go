package loan

import (
	dErrors "loancore/pkg/domain-errors"
)

const (
	minTermMonths = 1
	maxTermMonths = 600

	shortTermCeiling  = 12
	mediumTermCeiling = 60
)

// Term is a loan duration in whole months.
type Term struct {
	months int
}

// NewTerm validates and builds a loan term. Valid range is 1 to 600 months.
func NewTerm(months int) (Term, error) {
	if months < minTermMonths {
		return Term{}, dErrors.New(dErrors.CodeInvalidInput, "loan term must be positive")
	}
	if months > maxTermMonths {
		return Term{}, dErrors.New(dErrors.CodeInvalidInput, "loan term cannot exceed 600 months")
	}
	return Term{months: months}, nil
}

// MustTerm is for constants and tests with known-valid input.
func MustTerm(months int) Term {
	t, err := NewTerm(months)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Term) Months() int { return t.months }

func (t Term) IsShortTerm() bool { return t.months <= shortTermCeiling }
func (t Term) IsMediumTerm() bool {
	return t.months > shortTermCeiling && t.months <= mediumTermCeiling
}
func (t Term) IsLongTerm() bool { return t.months > mediumTermCeiling }
