package swap

import (
	"fmt"
)

// Outcome is the terminal state of a swap batch.
type Outcome string

const (
	// OutcomeAllSucceeded: at least one item swapped and nothing failed.
	OutcomeAllSucceeded Outcome = "all-succeeded"
	// OutcomePartialFailure: at least one item failed.
	OutcomePartialFailure Outcome = "partial-failure"
	// OutcomeNothingToDo: nothing matched and nothing failed.
	OutcomeNothingToDo Outcome = "nothing-to-do"
)

// ItemError is one failed item of a batch.
type ItemError struct {
	// Item is the component or style name the failure belongs to.
	Item string `json:"item"`
	// Node is the instance or node id, when the failure is node-specific.
	Node   string `json:"node,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e ItemError) Error() string { return e.Reason }

func (e ItemError) Unwrap() error { return e.Err }

// Report accumulates the result of one swap batch.
type Report struct {
	ComponentsSwapped int         `json:"componentsSwapped"`
	StylesSwapped     int         `json:"stylesSwapped"`
	InstancesFound    int         `json:"instancesFound"`
	Errors            []ItemError `json:"errors,omitempty"`
	// Unverified counts mapped property values the host did not keep.
	Unverified  int   `json:"unverified,omitempty"`
	TotalTimeMs int64 `json:"totalTimeMs"`
}

func (r *Report) fail(item, node, reason string, err error) {
	r.Errors = append(r.Errors, ItemError{Item: item, Node: node, Reason: reason, Err: err})
}

// Swapped is the number of components and styles swapped.
func (r *Report) Swapped() int { return r.ComponentsSwapped + r.StylesSwapped }

// Outcome classifies the batch.
func (r *Report) Outcome() Outcome {
	switch {
	case len(r.Errors) > 0:
		return OutcomePartialFailure
	case r.Swapped() == 0:
		return OutcomeNothingToDo
	default:
		return OutcomeAllSucceeded
	}
}

// Summary is the sentence shown to the user.
func (r *Report) Summary() string {
	switch r.Outcome() {
	case OutcomeNothingToDo:
		return "No matching component instances or styles found in selection."
	case OutcomePartialFailure:
		return fmt.Sprintf("Swap completed with %d errors. %d items swapped.", len(r.Errors), r.Swapped())
	default:
		return fmt.Sprintf("Swap completed successfully! %d components and %d styles swapped.",
			r.ComponentsSwapped, r.StylesSwapped)
	}
}

// Details returns the per-item error messages.
func (r *Report) Details() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Reason
	}
	return out
}
