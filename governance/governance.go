package governance

import (
	"strings"

	"github.com/ganad831/fieldrules/formula"
)

// Status is the closed set of governance verdicts.
type Status string

const (
	StatusValid             Status = "VALID"
	StatusValidWithWarnings Status = "VALID_WITH_WARNINGS"
	StatusInvalid           Status = "INVALID"
	StatusEmpty             Status = "EMPTY"
)

// Result is the derived policy verdict for one formula. It is computed
// fresh per call and never persisted.
type Result struct {
	Status          Status   `json:"status"`
	BlockingReasons []string `json:"blockingReasons"`
}

// Evaluate combines the validator output and an optional cycle signal
// into one verdict. Decision order: an empty formula is EMPTY; any
// validation error makes the verdict INVALID with those errors as the
// reasons (a simultaneously detected cycle never displaces them); an
// unchecked cycle map (nil) means "not evaluated", distinct from "no
// cycle"; a detected cycle is INVALID; warnings alone give
// VALID_WITH_WARNINGS; otherwise VALID.
func Evaluate(formulaText string, validation formula.ValidationResult, cycle *CycleResult) Result {
	if isBlank(formulaText) {
		return Result{Status: StatusEmpty, BlockingReasons: []string{}}
	}

	if len(validation.Errors) > 0 {
		reasons := make([]string, len(validation.Errors))
		copy(reasons, validation.Errors)
		return Result{Status: StatusInvalid, BlockingReasons: reasons}
	}

	if cycle != nil && cycle.HasCycle {
		return Result{Status: StatusInvalid, BlockingReasons: []string{cycleReason(cycle.Members)}}
	}

	if len(validation.Warnings) > 0 {
		return Result{Status: StatusValidWithWarnings, BlockingReasons: []string{}}
	}

	return Result{Status: StatusValid, BlockingReasons: []string{}}
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
