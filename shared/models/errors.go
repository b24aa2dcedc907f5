package models

import (
	"errors"
	"fmt"
	"strings"
)

// Application-wide standard errors
var (
	// Graph / lookup errors
	ErrNotFound    = errors.New("resource not found")
	ErrDuplicateID = errors.New("section id already exists")

	// Validation errors
	ErrDanglingTarget     = errors.New("choice targets a missing section")
	ErrUnreachableSection = errors.New("section is unreachable from the start section")
	ErrInvalidStart       = errors.New("start section does not exist")
	ErrEndingMismatch     = errors.New("stored ending flag disagrees with choices")
	ErrDuplicateLabel     = errors.New("duplicate choice label in section")
	ErrValidationFailed   = errors.New("story validation failed")

	// Persistence errors
	ErrParse         = errors.New("malformed document")
	ErrAlreadyExists = errors.New("resource already exists")

	// Traversal errors
	ErrInvalidChoice = errors.New("invalid choice")
	ErrStoryEnded    = errors.New("story has already ended")

	// General
	ErrInvalidInput = errors.New("invalid input data")
)

// DuplicateIDError is returned when a section id is added twice.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("section %q already exists", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// NotFoundError is returned when a section (or a choice inside it) cannot be resolved.
type NotFoundError struct {
	Kind string // "section" или "choice"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewSectionNotFound is a shorthand for a missing section.
func NewSectionNotFound(id string) error {
	return &NotFoundError{Kind: "section", ID: id}
}

// DanglingTargetError reports a choice whose target section does not exist.
type DanglingTargetError struct {
	SectionID string
	TargetID  string
}

func (e *DanglingTargetError) Error() string {
	return fmt.Sprintf("section %q has a choice targeting missing section %q", e.SectionID, e.TargetID)
}

func (e *DanglingTargetError) Is(target error) bool { return target == ErrDanglingTarget }

// UnreachableSectionWarning reports a section that no path from the start reaches.
type UnreachableSectionWarning struct {
	SectionID string
}

func (e *UnreachableSectionWarning) Error() string {
	return fmt.Sprintf("section %q is unreachable from the start section", e.SectionID)
}

func (e *UnreachableSectionWarning) Is(target error) bool { return target == ErrUnreachableSection }

// InvalidStartError reports a start section id that names no section.
type InvalidStartError struct {
	StartSectionID string
}

func (e *InvalidStartError) Error() string {
	if e.StartSectionID == "" {
		return "start section is not set"
	}
	return fmt.Sprintf("start section %q does not exist", e.StartSectionID)
}

func (e *InvalidStartError) Is(target error) bool { return target == ErrInvalidStart }

// EndingMismatchError is a migration diagnostic for legacy documents that stored
// an explicit ending flag which disagrees with the section's choices.
type EndingMismatchError struct {
	SectionID   string
	Claimed     bool
	ChoiceCount int
}

func (e *EndingMismatchError) Error() string {
	if e.Claimed {
		return fmt.Sprintf("section %q is flagged as an ending but has %d choices", e.SectionID, e.ChoiceCount)
	}
	return fmt.Sprintf("section %q is flagged as not an ending but has no choices", e.SectionID)
}

func (e *EndingMismatchError) Is(target error) bool { return target == ErrEndingMismatch }

// DuplicateLabelWarning reports two choices in one section whose labels fold to the same value.
type DuplicateLabelWarning struct {
	SectionID string
	Label     string
}

func (e *DuplicateLabelWarning) Error() string {
	return fmt.Sprintf("section %q has more than one choice labeled %q", e.SectionID, e.Label)
}

func (e *DuplicateLabelWarning) Is(target error) bool { return target == ErrDuplicateLabel }

// ParseError is returned when a persisted document is malformed or lacks required fields.
type ParseError struct {
	Field string // Пусто, если документ не разбирается целиком
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse error at %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// InvalidChoiceError is returned when the reader submits a label the current section does not offer.
type InvalidChoiceError struct {
	SectionID string
	Label     string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("section %q has no choice %q", e.SectionID, e.Label)
}

func (e *InvalidChoiceError) Is(target error) bool { return target == ErrInvalidChoice }

// ValidationFailedError carries every fatal diagnostic of a validation run.
type ValidationFailedError struct {
	Errors []error
}

func (e *ValidationFailedError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("story validation failed (%d errors): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *ValidationFailedError) Is(target error) bool { return target == ErrValidationFailed }

// Unwrap exposes the individual diagnostics to errors.Is / errors.As.
func (e *ValidationFailedError) Unwrap() []error { return e.Errors }
