package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gamebook/internal/engine"
	"gamebook/internal/graph"
	"gamebook/internal/memory"
	"gamebook/internal/metrics"
	"gamebook/internal/validation"
	"gamebook/shared/interfaces"
	"gamebook/shared/models"
)

// Session is one play-through of a story. It is owned by its caller and
// passed explicitly to every gameplay call.
type Session struct {
	ID        uuid.UUID
	StoryName string
	Engine    *engine.Engine
	Tracker   *memory.Tracker
	StartedAt time.Time
	// SlotID is the save slot the session was resumed from or last saved to.
	SlotID uuid.UUID
}

// GameplayService определяет операции чтения истории.
type GameplayService interface {
	StartSession(ctx context.Context, storyName string) (*Session, *models.Section, error)
	ResumeSession(ctx context.Context, storyName string, slotID uuid.UUID) (*Session, *models.Section, error)
	Choose(session *Session, label string) (*models.Section, error)
	SaveSession(ctx context.Context, session *Session) (uuid.UUID, error)
	ListSaves(ctx context.Context, storyName string) ([]*models.SaveSummary, error)
	DeleteSave(ctx context.Context, storyName string, slotID uuid.UUID) error
}

type gameplayServiceImpl struct {
	stories interfaces.StoryRepository
	saves   interfaces.SaveSlotRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewGameplayService creates the gameplay service. m may be nil.
func NewGameplayService(
	stories interfaces.StoryRepository,
	saves interfaces.SaveSlotRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) GameplayService {
	return &gameplayServiceImpl{
		stories: stories,
		saves:   saves,
		metrics: m,
		logger:  logger.Named("GameplayService"),
		now:     time.Now,
	}
}

// loadPlayable loads a story and refuses it when validation reports fatal diagnostics.
func (s *gameplayServiceImpl) loadPlayable(ctx context.Context, storyName string) (*graph.Store, error) {
	loaded, err := s.stories.Load(ctx, storyName)
	if err != nil {
		return nil, err
	}
	store, err := graph.FromStory(loaded.Story)
	if err != nil {
		return nil, fmt.Errorf("story %q: %w", storyName, err)
	}
	report := validation.Validate(store, validation.Options{EndingClaims: loaded.EndingClaims})
	for _, warning := range report.Warnings() {
		s.logger.Debug("Validation warning", zap.String("story", storyName), zap.Error(warning))
	}
	if err := report.Err(); err != nil {
		s.logger.Warn("Story is not playable", zap.String("story", storyName), zap.Error(err))
		return nil, err
	}
	return store, nil
}

func (s *gameplayServiceImpl) engineOptions() []engine.Option {
	opts := []engine.Option{engine.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, engine.WithMetrics(s.metrics))
	}
	return opts
}

func (s *gameplayServiceImpl) countSession(mode string) {
	if s.metrics != nil {
		s.metrics.SessionsStarted.WithLabelValues(mode).Inc()
	}
}

// StartSession begins a fresh play-through and enters the start section.
func (s *gameplayServiceImpl) StartSession(ctx context.Context, storyName string) (*Session, *models.Section, error) {
	store, err := s.loadPlayable(ctx, storyName)
	if err != nil {
		return nil, nil, err
	}
	tracker := memory.New()
	session := &Session{
		ID:        uuid.New(),
		StoryName: storyName,
		Engine:    engine.New(store, tracker, s.engineOptions()...),
		Tracker:   tracker,
		StartedAt: s.now().UTC(),
	}
	section, err := session.Engine.Enter()
	if err != nil {
		return nil, nil, err
	}
	s.countSession("new")
	s.logger.Info("Session started", zap.String("story", storyName), zap.Stringer("sessionID", session.ID))
	return session, section, nil
}

// ResumeSession restores a save slot. A slot pointing at a section that no
// longer exists yields a NotFoundError rather than a session.
func (s *gameplayServiceImpl) ResumeSession(ctx context.Context, storyName string, slotID uuid.UUID) (*Session, *models.Section, error) {
	state, err := s.saves.Get(ctx, storyName, slotID)
	if err != nil {
		return nil, nil, err
	}
	store, err := s.loadPlayable(ctx, storyName)
	if err != nil {
		return nil, nil, err
	}
	tracker := memory.Restore(state.Memory)
	session := &Session{
		ID:        uuid.New(),
		StoryName: storyName,
		Engine:    engine.Resume(store, tracker, state.CurrentSectionID, s.engineOptions()...),
		Tracker:   tracker,
		StartedAt: s.now().UTC(),
		SlotID:    state.ID,
	}
	section, err := session.Engine.Enter()
	if err != nil {
		s.logger.Warn("Save slot cannot be resumed",
			zap.Stringer("slotID", slotID), zap.String("sectionID", state.CurrentSectionID), zap.Error(err))
		return nil, nil, err
	}
	s.countSession("resume")
	s.logger.Info("Session resumed",
		zap.String("story", storyName), zap.Stringer("slotID", slotID), zap.Int("decisions", len(state.Memory.Decisions)))
	return session, section, nil
}

func (s *gameplayServiceImpl) Choose(session *Session, label string) (*models.Section, error) {
	return session.Engine.Choose(label)
}

// SaveSession writes the session to its save slot, creating one on the first save.
func (s *gameplayServiceImpl) SaveSession(ctx context.Context, session *Session) (uuid.UUID, error) {
	state := &models.SaveState{
		ID:               session.SlotID,
		StoryName:        session.StoryName,
		CurrentSectionID: session.Engine.CurrentID(),
		Memory:           session.Tracker.Snapshot(),
	}
	id, err := s.saves.Save(ctx, state)
	if err != nil {
		s.logger.Error("Failed to save session", zap.Stringer("sessionID", session.ID), zap.Error(err))
		return uuid.Nil, err
	}
	session.SlotID = id
	s.logger.Info("Session saved", zap.Stringer("sessionID", session.ID), zap.Stringer("slotID", id))
	return id, nil
}

func (s *gameplayServiceImpl) ListSaves(ctx context.Context, storyName string) ([]*models.SaveSummary, error) {
	return s.saves.List(ctx, storyName)
}

func (s *gameplayServiceImpl) DeleteSave(ctx context.Context, storyName string, slotID uuid.UUID) error {
	if err := s.saves.Delete(ctx, storyName, slotID); err != nil {
		return err
	}
	s.logger.Info("Save slot deleted", zap.String("story", storyName), zap.Stringer("slotID", slotID))
	return nil
}
