// Package validation provides pre-flight checks run before sync operations.
package validation

import (
	"errors"
	"fmt"

	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/similarity"
	"github.com/matthewsinclair/arca-notionex/internal/util"
)

// nearTitleThreshold is the title similarity at which two sibling
// documents are flagged as likely typos of each other.
const nearTitleThreshold = 0.95

// Error represents a validation failure with context.
type Error struct {
	// Field is the configuration key or document path that failed validation
	Field string
	// Message describes the validation failure
	Message string
	// Err is the underlying error (if any)
	Err error
}

// Error returns a formatted validation error message.
func (ve *Error) Error() string {
	if ve.Err != nil {
		return fmt.Sprintf("validation failed for %q: %s: %v", ve.Field, ve.Message, ve.Err)
	}
	return fmt.Sprintf("validation failed for %q: %s", ve.Field, ve.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (ve *Error) Unwrap() error {
	return ve.Err
}

// Errors collects multiple validation errors.
type Errors []error

// Error returns a formatted error message for all validation failures.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors:\n- %s", len(ve), errors.Join(ve...))
}

// Result contains the outcome of a validation check.
type Result struct {
	// Valid indicates whether all validations passed
	Valid bool
	// Warnings contains non-fatal validation issues
	Warnings []string
	// Errors contains validation failures that prevent the operation
	Errors []error
}

// AddError adds an error to the validation result.
func (r *Result) AddError(err error) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the validation result.
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns the combined validation error message.
func (r *Result) Error() error {
	if !r.HasErrors() {
		return nil
	}
	if len(r.Errors) == 1 {
		return r.Errors[0]
	}
	return Errors(r.Errors)
}

// Summary returns a human-readable summary of the validation result.
func (r *Result) Summary() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "All validations passed"
	}
	var msg string
	if r.Valid {
		msg = "Validation passed with warnings"
	} else {
		msg = "Validation failed"
	}
	if len(r.Warnings) > 0 {
		msg += fmt.Sprintf(" (%d warning(s))", len(r.Warnings))
	}
	return msg
}

// CheckDocuments verifies that a discovered document set is safe to push.
// Within each directory every document must have a distinct effective
// title: titles are the only handle for matching remote pages back to
// documents and for reusing directory pages across runs, so same-level
// duplicates would make remote placement ambiguous. The same title in
// different directories is fine. Sibling titles that are nearly but not
// exactly equal draw a warning, since they read as typos of each other
// once both pages sit under the same parent.
func CheckDocuments(docs []*document.Document) *Result {
	result := &Result{Valid: true}
	if len(docs) == 0 {
		result.AddWarning("no documents found")
		return result
	}

	type titleKey struct {
		dir   string
		title string
	}
	type titleEntry struct {
		title string
		path  string
	}
	seen := make(map[titleKey]string, len(docs))
	byDir := make(map[string][]titleEntry)
	for _, doc := range docs {
		title := doc.EffectiveTitle()
		if title == "" {
			result.AddError(&Error{
				Field:   doc.Path,
				Message: "document has no derivable title",
			})
			continue
		}
		key := titleKey{dir: util.DirOf(doc.Path), title: title}
		if first, ok := seen[key]; ok {
			result.AddError(&Error{
				Field:   doc.Path,
				Message: fmt.Sprintf("duplicate title %q also used by %q", title, first),
			})
			continue
		}
		seen[key] = doc.Path

		for _, prior := range byDir[key.dir] {
			if similarity.TitleScore(prior.title, title) >= nearTitleThreshold {
				result.AddWarning(fmt.Sprintf("%s: title %q is close to %q used by %s",
					doc.Path, title, prior.title, prior.path))
			}
		}
		byDir[key.dir] = append(byDir[key.dir], titleEntry{title: title, path: doc.Path})
	}
	return result
}
