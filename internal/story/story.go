// Package story holds the user story record rendered onto a card.
package story

import (
	"fmt"
	"strings"
)

// Record is a fully identified story, ready to be rendered.
type Record struct {
	ID          string
	Name        string
	Actor       string
	Action      string
	Achievement string
	Criteria    string // newline-delimited acceptance criteria
	DoneWhen    string
}

// Draft is a story as submitted, before an id has been allocated.
// Fields absent from the submission are listed in Missing.
type Draft struct {
	Name        string
	Actor       string
	Action      string
	Achievement string
	Criteria    string
	DoneWhen    string

	Missing []string
}

// Required form field names, in form order.
var RequiredFields = []string{"name", "actor", "action", "achievement"}

// ValidationError reports required fields that were absent or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// Validate checks that every required field was supplied and is not blank.
func (d Draft) Validate() error {
	var missing []string
	seen := map[string]bool{}
	for _, f := range d.Missing {
		seen[f] = true
	}
	values := map[string]string{
		"name":        d.Name,
		"actor":       d.Actor,
		"action":      d.Action,
		"achievement": d.Achievement,
	}
	for _, f := range RequiredFields {
		if seen[f] || strings.TrimSpace(values[f]) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// WithID returns the Record for d under the given id.
func (d Draft) WithID(id string) Record {
	return Record{
		ID:          id,
		Name:        d.Name,
		Actor:       d.Actor,
		Action:      d.Action,
		Achievement: d.Achievement,
		Criteria:    d.Criteria,
		DoneWhen:    d.DoneWhen,
	}
}

// CriteriaLines splits criteria on newlines and returns the trimmed,
// non-blank lines.
func CriteriaLines(criteria string) []string {
	var lines []string
	for _, line := range strings.Split(criteria, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Example is the fixed story behind the "generate example" action.
func Example() Draft {
	return Draft{
		Name:        "Example: User login",
		Actor:       "Registered user",
		Action:      "log in to the system",
		Achievement: "access my personal dashboard",
		Criteria:    "1. Validate email format\n2. Verify password\n3. Show an error message on failure",
		DoneWhen:    "all acceptance tests pass",
	}
}
