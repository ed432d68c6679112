// Package eligibility combines named pass/fail underwriting checks into a
// single loan eligibility decision. The accumulator is stateless between
// assessments; rules that produce the checks live in the service.
package eligibility

import "strings"

// Decision classifies the combined outcome of an assessment.
type Decision string

const (
	DecisionApproved       Decision = "APPROVED"
	DecisionRejected       Decision = "REJECTED"
	DecisionConditional    Decision = "CONDITIONAL"
	DecisionRequiresReview Decision = "REQUIRES_REVIEW"
)

// Keyword tiers for triaging failed checks. A high-priority failure rejects
// outright; a moderate one defers to review; anything else only conditions
// the approval. The ordering is a deliberate, reproducible tie-break policy.
var (
	highPriorityKeywords = []string{"credit score", "age", "active", "income", "debt-to-income"}
	moderateKeywords     = []string{"employment", "loan", "amount"}
)

// Result is the outcome of a multi-criterion eligibility assessment.
// Approved and Decision are kept consistent: APPROVED and CONDITIONAL both
// imply approval.
type Result struct {
	Approved      bool     `json:"approved"`
	Decision      Decision `json:"decision"`
	PrimaryReason string   `json:"primary_reason"`
	PassedChecks  []string `json:"passed_checks"`
	FailedChecks  []string `json:"failed_checks"`
}

func (r Result) IsApproved() bool     { return r.Approved }
func (r Result) RequiresReview() bool { return r.Decision == DecisionRequiresReview }
func (r Result) IsConditional() bool  { return r.Decision == DecisionConditional }

// Rejected builds a terminal rejection without running any checks, for
// malformed assessment input (nil customer, non-positive amount).
func Rejected(reason string) Result {
	return Result{
		Approved:      false,
		Decision:      DecisionRejected,
		PrimaryReason: reason,
		FailedChecks:  []string{reason},
	}
}

// Checks accumulates named pass/fail criteria in the order they were
// recorded, then folds them into a Result.
type Checks struct {
	passed []string
	failed []string
}

func NewChecks() *Checks {
	return &Checks{}
}

// AddPassed records a satisfied criterion.
func (c *Checks) AddPassed(description string) {
	c.passed = append(c.passed, description)
}

// AddFailed records a violated criterion.
func (c *Checks) AddFailed(description string) {
	c.failed = append(c.failed, description)
}

func (c *Checks) PassedChecks() []string {
	return append([]string{}, c.passed...)
}

func (c *Checks) FailedChecks() []string {
	return append([]string{}, c.failed...)
}

// BuildResult folds the recorded checks into a decision:
//
//   - no checks recorded: REQUIRES_REVIEW
//   - all passed: APPROVED
//   - any failure: triaged by keyword tier; high rejects, moderate defers
//     to review, otherwise the approval is conditional on the first failure.
func (c *Checks) BuildResult() Result {
	if len(c.passed) == 0 && len(c.failed) == 0 {
		return Result{
			Approved:      false,
			Decision:      DecisionRequiresReview,
			PrimaryReason: "no checks performed",
		}
	}

	if len(c.failed) == 0 {
		return Result{
			Approved:      true,
			Decision:      DecisionApproved,
			PrimaryReason: "All eligibility criteria met",
			PassedChecks:  c.PassedChecks(),
			FailedChecks:  []string{},
		}
	}

	result := Result{
		PassedChecks: c.PassedChecks(),
		FailedChecks: c.FailedChecks(),
	}
	switch {
	case anyContains(c.failed, highPriorityKeywords):
		result.Approved = false
		result.Decision = DecisionRejected
		result.PrimaryReason = c.failed[0]
	case anyContains(c.failed, moderateKeywords):
		result.Approved = false
		result.Decision = DecisionRequiresReview
		result.PrimaryReason = c.failed[0]
	default:
		result.Approved = true
		result.Decision = DecisionConditional
		result.PrimaryReason = c.failed[0]
	}
	return result
}

func anyContains(descriptions, keywords []string) bool {
	for _, desc := range descriptions {
		lower := strings.ToLower(desc)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
