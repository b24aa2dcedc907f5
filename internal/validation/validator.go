// Package validation checks the structural soundness of a story graph.
//
// A run never stops at the first problem: every check runs over the whole
// graph and the report carries all diagnostics, so authoring tools can show
// everything at once. Fatal diagnostics block traversal; warnings are advisory.
package validation

import (
	"errors"

	"gamebook/internal/graph"
	"gamebook/shared/models"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single finding. Err is one of the typed errors from shared/models.
type Diagnostic struct {
	Severity Severity
	Err      error
}

// Kind returns the sentinel the diagnostic matches, for grouping and metrics.
func (d Diagnostic) Kind() string {
	switch {
	case errors.Is(d.Err, models.ErrDanglingTarget):
		return "dangling_target"
	case errors.Is(d.Err, models.ErrInvalidStart):
		return "invalid_start"
	case errors.Is(d.Err, models.ErrUnreachableSection):
		return "unreachable_section"
	case errors.Is(d.Err, models.ErrEndingMismatch):
		return "ending_mismatch"
	case errors.Is(d.Err, models.ErrDuplicateLabel):
		return "duplicate_label"
	default:
		return "unknown"
	}
}

// Options tunes a validation run.
type Options struct {
	// EndingClaims are explicit ending flags from legacy documents.
	// When nil the ending consistency check has nothing to compare and reports nothing.
	EndingClaims models.EndingClaims
}

// Report is the full result of a validation run.
type Report struct {
	Diagnostics []Diagnostic
}

// Fatal returns the error-level diagnostics.
func (r *Report) Fatal() []error {
	return r.filter(SeverityError)
}

// Warnings returns the advisory diagnostics.
func (r *Report) Warnings() []error {
	return r.filter(SeverityWarning)
}

// OK reports whether the story may be handed to the traversal engine.
func (r *Report) OK() bool {
	return len(r.Fatal()) == 0
}

// Err returns nil when there are no fatal diagnostics, otherwise a
// *models.ValidationFailedError wrapping all of them.
func (r *Report) Err() error {
	fatal := r.Fatal()
	if len(fatal) == 0 {
		return nil
	}
	return &models.ValidationFailedError{Errors: fatal}
}

func (r *Report) filter(severity Severity) []error {
	var out []error
	for _, d := range r.Diagnostics {
		if d.Severity == severity {
			out = append(out, d.Err)
		}
	}
	return out
}

func (r *Report) add(severity Severity, err error) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Severity: severity, Err: err})
}

// Validate runs every check over the store and its declared start section.
func Validate(store *graph.Store, opts Options) *Report {
	report := &Report{}

	startID := store.StartSectionID()
	startOK := store.Has(startID)
	if !startOK {
		report.add(SeverityError, &models.InvalidStartError{StartSectionID: startID})
	}

	story := store.Story()
	for _, section := range story.Sections {
		checkChoices(store, section, report)
		checkEndingClaim(section, opts.EndingClaims, report)
	}

	// Без валидного старта достижимость не определена
	if startOK {
		reachable := Reachable(store, startID)
		for _, section := range story.Sections {
			if section.ID == startID {
				continue
			}
			if _, ok := reachable[section.ID]; !ok {
				report.add(SeverityWarning, &models.UnreachableSectionWarning{SectionID: section.ID})
			}
		}
	}

	return report
}

func checkChoices(store *graph.Store, section *models.Section, report *Report) {
	seenLabels := make(map[string]struct{}, len(section.Choices))
	for _, choice := range section.Choices {
		if !store.Has(choice.TargetID) {
			report.add(SeverityError, &models.DanglingTargetError{SectionID: section.ID, TargetID: choice.TargetID})
		}
		folded := graph.FoldLabel(choice.Label)
		if folded == "" {
			continue
		}
		if _, dup := seenLabels[folded]; dup {
			report.add(SeverityWarning, &models.DuplicateLabelWarning{SectionID: section.ID, Label: choice.Label})
			continue
		}
		seenLabels[folded] = struct{}{}
	}
}

func checkEndingClaim(section *models.Section, claims models.EndingClaims, report *Report) {
	claimed, ok := claims[section.ID]
	if !ok || claimed == section.IsEnding() {
		return
	}
	report.add(SeverityWarning, &models.EndingMismatchError{
		SectionID:   section.ID,
		Claimed:     claimed,
		ChoiceCount: len(section.Choices),
	})
}

// Reachable returns the set of section ids reachable from startID by a
// breadth-first walk over the directed choice graph. Dangling targets are skipped.
func Reachable(store *graph.Store, startID string) map[string]struct{} {
	seen := make(map[string]struct{})
	if !store.Has(startID) {
		return seen
	}
	seen[startID] = struct{}{}
	queue := []string{startID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		section, err := store.Section(id)
		if err != nil {
			continue
		}
		for _, choice := range section.Choices {
			if _, ok := seen[choice.TargetID]; ok || !store.Has(choice.TargetID) {
				continue
			}
			seen[choice.TargetID] = struct{}{}
			queue = append(queue, choice.TargetID)
		}
	}
	return seen
}

// Unreachable lists, in insertion order, the sections no path from the start reaches.
func Unreachable(store *graph.Store) []string {
	startID := store.StartSectionID()
	if !store.Has(startID) {
		return nil
	}
	reachable := Reachable(store, startID)
	var out []string
	for _, id := range store.IDs() {
		if _, ok := reachable[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
