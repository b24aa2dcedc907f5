package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gamebook/internal/graph"
	"gamebook/internal/metrics"
	"gamebook/internal/validation"
	"gamebook/shared/interfaces"
	"gamebook/shared/models"
)

// Draft is a story being edited. Every authoring call takes it explicitly;
// there is no process-wide "current story".
type Draft struct {
	Name  string
	Store *graph.Store
	// Shape and EndingClaims describe the document the draft was opened from.
	Shape        models.DocumentShape
	EndingClaims models.EndingClaims
}

// AuthoringService определяет операции редактирования историй.
type AuthoringService interface {
	NewStory(ctx context.Context, name string, meta models.StoryMeta) (*Draft, error)
	Open(ctx context.Context, name string) (*Draft, error)
	Save(ctx context.Context, draft *Draft) (*validation.Report, error)
	Validate(draft *Draft) *validation.Report

	AddSection(draft *Draft, section *models.Section) error
	AddChoice(draft *Draft, sectionID string, choice models.Choice) (models.Choice, error)
	AddHint(draft *Draft, sectionID, hint string) error
	SetAuxiliary(draft *Draft, sectionID, key, value string) error
	SetStart(draft *Draft, sectionID string) error

	Info(draft *Draft) *models.StoryInfo
	ListSections(draft *Draft) []models.SectionListItem
}

type authoringServiceImpl struct {
	stories interfaces.StoryRepository
	strict  bool
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAuthoringService creates the authoring service. With strict set, a draft
// with fatal diagnostics is not written. m may be nil.
func NewAuthoringService(stories interfaces.StoryRepository, strict bool, m *metrics.Metrics, logger *zap.Logger) AuthoringService {
	return &authoringServiceImpl{
		stories: stories,
		strict:  strict,
		metrics: m,
		logger:  logger.Named("AuthoringService"),
	}
}

// NewStory creates an empty draft. It is not stored until Save.
func (s *authoringServiceImpl) NewStory(ctx context.Context, name string, meta models.StoryMeta) (*Draft, error) {
	if strings.TrimSpace(meta.Title) == "" {
		return nil, fmt.Errorf("story title is empty: %w", models.ErrInvalidInput)
	}
	exists, err := s.stories.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("story %q: %w", name, models.ErrAlreadyExists)
	}
	s.logger.Info("New story draft", zap.String("name", name), zap.String("title", meta.Title))
	return &Draft{Name: name, Store: graph.New(meta), Shape: models.ShapeCanonical}, nil
}

func (s *authoringServiceImpl) Open(ctx context.Context, name string) (*Draft, error) {
	loaded, err := s.stories.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	store, err := graph.FromStory(loaded.Story)
	if err != nil {
		return nil, fmt.Errorf("open story %q: %w", name, err)
	}
	if loaded.Shape != models.ShapeCanonical {
		s.logger.Info("Story uses a legacy layout and will be rewritten on save",
			zap.String("name", name), zap.String("shape", string(loaded.Shape)))
	}
	return &Draft{Name: name, Store: store, Shape: loaded.Shape, EndingClaims: loaded.EndingClaims}, nil
}

func (s *authoringServiceImpl) Validate(draft *Draft) *validation.Report {
	report := validation.Validate(draft.Store, validation.Options{EndingClaims: draft.EndingClaims})
	if s.metrics != nil {
		for _, d := range report.Diagnostics {
			s.metrics.ObserveDiagnostic(d.Kind(), string(d.Severity))
		}
	}
	return report
}

// Save validates the draft and writes it in the canonical layout.
// Warnings are logged; fatal diagnostics block the write only in strict mode.
func (s *authoringServiceImpl) Save(ctx context.Context, draft *Draft) (*validation.Report, error) {
	report := s.Validate(draft)
	log := s.logger.With(zap.String("name", draft.Name))
	for _, warning := range report.Warnings() {
		log.Warn("Validation warning", zap.Error(warning))
	}
	if !report.OK() {
		if s.strict {
			log.Warn("Draft not saved, validation failed", zap.Int("errors", len(report.Fatal())))
			return report, report.Err()
		}
		log.Warn("Saving draft with validation errors", zap.Int("errors", len(report.Fatal())))
	}

	if err := s.stories.Save(ctx, draft.Name, draft.Store.Story()); err != nil {
		return report, err
	}
	draft.Shape = models.ShapeCanonical
	// После переписывания в канонический формат флаги концовок больше не хранятся
	draft.EndingClaims = nil
	log.Info("Draft saved", zap.Int("sections", draft.Store.Len()))
	return report, nil
}

func (s *authoringServiceImpl) AddSection(draft *Draft, section *models.Section) error {
	if section != nil && strings.TrimSpace(section.Title) == "" {
		section.Title = section.ID
	}
	return draft.Store.AddSection(section)
}

// AddChoice appends a choice, assigning the next free letter when the label is empty.
func (s *authoringServiceImpl) AddChoice(draft *Draft, sectionID string, choice models.Choice) (models.Choice, error) {
	section, err := draft.Store.Section(sectionID)
	if err != nil {
		return models.Choice{}, err
	}
	choice.Label = strings.TrimSpace(choice.Label)
	if choice.Label == "" {
		choice.Label = graph.NextLabel(section)
	} else if graph.MatchChoice(section, choice.Label) != nil {
		return models.Choice{}, fmt.Errorf("section %q already has choice %q: %w", sectionID, choice.Label, models.ErrAlreadyExists)
	}
	if err := draft.Store.AddChoice(sectionID, choice); err != nil {
		return models.Choice{}, err
	}
	if !draft.Store.Has(choice.TargetID) {
		s.logger.Debug("Choice targets a section that does not exist yet",
			zap.String("sectionID", sectionID), zap.String("targetID", choice.TargetID))
	}
	return choice, nil
}

func (s *authoringServiceImpl) AddHint(draft *Draft, sectionID, hint string) error {
	if strings.TrimSpace(hint) == "" {
		return fmt.Errorf("hint is empty: %w", models.ErrInvalidInput)
	}
	return draft.Store.AddHint(sectionID, hint)
}

func (s *authoringServiceImpl) SetAuxiliary(draft *Draft, sectionID, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("auxiliary key is empty: %w", models.ErrInvalidInput)
	}
	return draft.Store.SetAuxiliary(sectionID, key, value)
}

// SetStart changes the start section. An unknown id is accepted and reported by validation.
func (s *authoringServiceImpl) SetStart(draft *Draft, sectionID string) error {
	if strings.TrimSpace(sectionID) == "" {
		return fmt.Errorf("start section id is empty: %w", models.ErrInvalidInput)
	}
	if !draft.Store.Has(sectionID) {
		s.logger.Warn("Start set to a section that does not exist", zap.String("sectionID", sectionID))
	}
	draft.Store.SetStart(sectionID)
	return nil
}

func (s *authoringServiceImpl) Info(draft *Draft) *models.StoryInfo {
	story := draft.Store.Story()
	info := &models.StoryInfo{
		Title:          story.Title,
		Author:         story.Author,
		Description:    story.Description,
		StartSectionID: story.StartSectionID,
		SectionCount:   draft.Store.Len(),
		Endings:        draft.Store.Endings(),
		Unreachable:    validation.Unreachable(draft.Store),
	}
	for _, section := range story.Sections {
		info.ChoiceCount += len(section.Choices)
	}
	return info
}

func (s *authoringServiceImpl) ListSections(draft *Draft) []models.SectionListItem {
	items := make([]models.SectionListItem, 0, draft.Store.Len())
	for section := range draft.Store.Sections() {
		items = append(items, models.SectionListItem{
			ID:           section.ID,
			Title:        section.Title,
			ChoicesCount: len(section.Choices),
			IsEnding:     section.IsEnding(),
		})
	}
	return items
}
