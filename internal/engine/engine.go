// Package engine walks a story graph one choice at a time.
//
// The engine is a small state machine: AtSection(id) until the current section
// has no choices (Ended) or cannot be resolved (Blocked). Every step is
// synchronous; the caller drives it with the reader's input.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"gamebook/internal/graph"
	"gamebook/internal/memory"
	"gamebook/internal/metrics"
	"gamebook/shared/models"
)

// StateKind is the engine state.
type StateKind int

const (
	AtSection StateKind = iota
	Ended
	Blocked
)

func (k StateKind) String() string {
	switch k {
	case AtSection:
		return "at_section"
	case Ended:
		return "ended"
	case Blocked:
		return "blocked"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// State is the current position of a session.
type State struct {
	Kind      StateKind
	SectionID string
	Reason    error // Только для Blocked
}

// Engine drives one play session. The story must not change while the engine uses it.
type Engine struct {
	store   *graph.Store
	tracker *memory.Tracker
	state   State
	entered bool // визит текущей секции уже записан

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.Named("TraversalEngine")
	}
}

// WithMetrics wires prometheus counters into the engine.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New starts a session at the story's start section.
func New(store *graph.Store, tracker *memory.Tracker, opts ...Option) *Engine {
	return Resume(store, tracker, store.StartSectionID(), opts...)
}

// Resume positions a session at sectionID without resolving it yet.
// A section that no longer exists surfaces as a NotFoundError on the first step.
func Resume(store *graph.Store, tracker *memory.Tracker, sectionID string, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		tracker: tracker,
		state:   State{Kind: AtSection, SectionID: sectionID},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current state.
func (e *Engine) State() State {
	return e.state
}

// CurrentID returns the id of the section the session is positioned at.
func (e *Engine) CurrentID() string {
	return e.state.SectionID
}

// Tracker returns the player memory tracker of the session.
func (e *Engine) Tracker() *memory.Tracker {
	return e.tracker
}

// Enter resolves and visits the current section. It is safe to call repeatedly.
func (e *Engine) Enter() (*models.Section, error) {
	if e.state.Kind == Blocked {
		return nil, e.state.Reason
	}

	section, err := e.resolve(e.state.SectionID)
	if err != nil {
		return nil, err
	}
	if !e.entered {
		e.visit(section)
	}
	return section.Clone(), nil
}

// Current returns a copy of the current section without recording anything.
func (e *Engine) Current() (*models.Section, error) {
	if e.state.Kind == Blocked {
		return nil, e.state.Reason
	}
	section, err := e.store.Section(e.state.SectionID)
	if err != nil {
		return nil, err
	}
	return section.Clone(), nil
}

// Options returns the choices offered by the current section.
func (e *Engine) Options() ([]models.Choice, error) {
	section, err := e.Current()
	if err != nil {
		return nil, err
	}
	return section.Choices, nil
}

// Choose performs one transition for the submitted label.
//
// On a match the pre-transition visit and the decision are recorded and the
// engine moves to the target, which is visited before the ending check.
// On no match the state and the player memory are left untouched and an
// InvalidChoiceError is returned so the caller can re-prompt.
// An ending that was never entered is visited first, and ErrStoryEnded is returned.
func (e *Engine) Choose(label string) (*models.Section, error) {
	switch e.state.Kind {
	case Ended:
		return nil, models.ErrStoryEnded
	case Blocked:
		return nil, e.state.Reason
	}

	log := e.logger.With(zap.String("sectionID", e.state.SectionID), zap.String("label", label))

	section, err := e.resolve(e.state.SectionID)
	if err != nil {
		return nil, err
	}

	// Секция без выборов, в которую не входили через Enter: визит и завершение
	if !e.entered && section.IsEnding() {
		e.visit(section)
		return nil, models.ErrStoryEnded
	}

	choice := graph.MatchChoice(section, label)
	if choice == nil {
		log.Debug("No choice matches submitted label")
		if e.metrics != nil {
			e.metrics.InvalidChoices.Inc()
		}
		return nil, &models.InvalidChoiceError{SectionID: section.ID, Label: label}
	}

	if !e.entered {
		e.visit(section)
	}
	record := e.tracker.RecordDecision(section.ID, choice.Label)
	if e.metrics != nil {
		e.metrics.Transitions.Inc()
	}
	log.Debug("Choice accepted",
		zap.String("targetID", choice.TargetID),
		zap.Int("sequence", record.SequenceNumber),
	)

	e.state = State{Kind: AtSection, SectionID: choice.TargetID}
	e.entered = false

	target, err := e.resolve(choice.TargetID)
	if err != nil {
		return nil, err
	}
	e.visit(target)
	return target.Clone(), nil
}

// resolve looks up a section; a miss moves the engine to Blocked.
func (e *Engine) resolve(id string) (*models.Section, error) {
	section, err := e.store.Section(id)
	if err != nil {
		e.logger.Warn("Section cannot be resolved, session blocked", zap.String("sectionID", id))
		e.state = State{Kind: Blocked, SectionID: id, Reason: err}
		if e.metrics != nil {
			e.metrics.Blocked.Inc()
		}
		return nil, err
	}
	return section, nil
}

// visit records the section in player memory and then checks for an ending.
func (e *Engine) visit(section *models.Section) {
	e.tracker.RecordVisit(section.ID)
	e.tracker.RemoveOpenPath(section.ID)
	for _, hint := range section.Hints {
		e.tracker.AddHint(hint)
	}
	for _, choice := range section.Choices {
		if !e.tracker.HasVisited(choice.TargetID) && e.store.Has(choice.TargetID) {
			e.tracker.AddOpenPath(choice.TargetID)
		}
	}
	e.entered = true

	if section.IsEnding() {
		e.state = State{Kind: Ended, SectionID: section.ID}
		if e.metrics != nil {
			e.metrics.Endings.Inc()
		}
		e.logger.Info("Ending reached", zap.String("sectionID", section.ID))
	}
}
