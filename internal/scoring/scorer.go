// Package scoring maintains feature popularity, per-user discovery progress,
// and the insight summaries derived from interaction history.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xaenox/feature-scout/internal/models"
	"github.com/xaenox/feature-scout/internal/storage"
	"go.uber.org/zap"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type Config struct {
	// TutorialInitialStatus is the discovery status given on the first
	// tutorial view, the creation itself counting as the first increment.
	TutorialInitialStatus float64
	// AutomationInitialStatus is the discovery status given on the first
	// automation use.
	AutomationInitialStatus float64
	// FullyLearnedThreshold is the discovery status at which a feature
	// counts as fully learned.
	FullyLearnedThreshold float64
}

func DefaultConfig() Config {
	return Config{
		TutorialInitialStatus:   0.3,
		AutomationInitialStatus: 0.5,
		FullyLearnedThreshold:   0.9,
	}
}

// Scorer applies the interaction state transitions for tutorial views,
// automation uses, and feedback.
type Scorer struct {
	store  storage.Storage
	config Config
	logger *zap.Logger
	now    func() time.Time
}

func NewScorer(store storage.Storage, config Config, logger *zap.Logger) *Scorer {
	return &Scorer{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// RecordTutorialView bumps the interaction for (user, feature) by one
// tutorial view and nudges the feature's popularity.
func (s *Scorer) RecordTutorialView(ctx context.Context, userID, featureID int64) (*models.Interaction, error) {
	return s.recordEvent(ctx, userID, featureID, event{
		initialStatus:  s.config.TutorialInitialStatus,
		statusIncrease: 0.2,
		popularity:     func(p float64) float64 { return p*0.9 + 0.1 },
		apply:          func(i *models.Interaction) { i.TutorialViews++ },
	})
}

// RecordAutomationUse bumps the interaction by one automation use.
// Automation weighs heavier than a tutorial view in both discovery status
// and popularity.
func (s *Scorer) RecordAutomationUse(ctx context.Context, userID, featureID int64) (*models.Interaction, error) {
	return s.recordEvent(ctx, userID, featureID, event{
		initialStatus:  s.config.AutomationInitialStatus,
		statusIncrease: 0.3,
		popularity:     func(p float64) float64 { return p*0.8 + 0.2 },
		apply:          func(i *models.Interaction) { i.AutomationUses++ },
	})
}

type event struct {
	initialStatus  float64
	statusIncrease float64
	popularity     func(float64) float64
	apply          func(*models.Interaction)
}

func (s *Scorer) recordEvent(ctx context.Context, userID, featureID int64, ev event) (*models.Interaction, error) {
	feature, err := s.store.GetFeature(ctx, featureID)
	if err != nil {
		return nil, fmt.Errorf("loading feature: %w", err)
	}

	interaction, err := s.store.FindInteraction(ctx, userID, featureID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		interaction = &models.Interaction{
			UserID:          userID,
			FeatureID:       featureID,
			DiscoveryStatus: clamp01(ev.initialStatus),
			LastInteraction: s.now(),
		}
		ev.apply(interaction)
		if err := s.store.CreateInteraction(ctx, interaction); err != nil {
			return nil, fmt.Errorf("creating interaction: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("loading interaction: %w", err)
	default:
		ev.apply(interaction)
		interaction.DiscoveryStatus = clamp01(interaction.DiscoveryStatus + ev.statusIncrease)
		interaction.LastInteraction = s.now()
		if err := s.store.UpdateInteraction(ctx, interaction); err != nil {
			return nil, fmt.Errorf("updating interaction: %w", err)
		}
	}

	popularity := clamp01(ev.popularity(feature.Popularity))
	if err := s.store.UpdateFeaturePopularity(ctx, featureID, popularity); err != nil {
		return nil, fmt.Errorf("updating feature popularity: %w", err)
	}

	return interaction, nil
}

// RecordFeedback stores a rating and optional text on an existing
// interaction, then reblends the owning user's discovery score with the mean
// of all their ratings.
func (s *Scorer) RecordFeedback(ctx context.Context, interactionID int64, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	interaction, err := s.store.GetInteraction(ctx, interactionID)
	if err != nil {
		return fmt.Errorf("loading interaction: %w", err)
	}

	interaction.Rating = &rating
	interaction.Feedback = feedback
	interaction.LastInteraction = s.now()
	if err := s.store.UpdateInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("updating interaction: %w", err)
	}

	user, err := s.store.GetUser(ctx, interaction.UserID)
	if err != nil {
		// Feedback itself is recorded; the score update is best effort.
		s.logger.Warn("failed to load user for score update",
			zap.Error(err),
			zap.Int64("user_id", interaction.UserID))
		return nil
	}

	interactions, err := s.store.ListUserInteractions(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("listing interactions: %w", err)
	}

	var sum, count float64
	for _, i := range interactions {
		if i.Rating != nil {
			sum += float64(*i.Rating)
			count++
		}
	}
	if count == 0 {
		return nil
	}

	score := user.DiscoveryScore*0.7 + (sum/count)*0.3
	if err := s.store.UpdateUserScore(ctx, user.ID, score); err != nil {
		return fmt.Errorf("updating user score: %w", err)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
