package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/xaenox/feature-scout/internal/models"
	"github.com/xaenox/feature-scout/internal/storage"
)

// UserInsights summarizes one user's discovery journey.
type UserInsights struct {
	UserID               int64          `json:"user_id"`
	DiscoveryScore       float64        `json:"discovery_score"`
	DiscoveredFeatures   int            `json:"discovered_features"`
	FullyLearnedFeatures int            `json:"fully_learned_features"`
	TotalFeatures        int            `json:"total_features"`
	DiscoveryRate        float64        `json:"discovery_rate"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	TimeSpentHours       float64        `json:"time_spent_hours"`
	Efficiency           float64        `json:"efficiency"`
}

// FeatureInsight summarizes adoption of one feature across all users.
type FeatureInsight struct {
	FeatureID      int64   `json:"feature_id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Complexity     int     `json:"complexity"`
	Popularity     float64 `json:"popularity"`
	DiscoveryRate  float64 `json:"discovery_rate"`
	AvgRating      float64 `json:"avg_rating"`
	AutomationRate float64 `json:"automation_rate"`
}

// FeatureInsights is the overall adoption summary.
type FeatureInsights struct {
	FeatureInsights     []FeatureInsight `json:"feature_insights"`
	TotalFeatures       int              `json:"total_features"`
	AvgComplexity       float64          `json:"avg_complexity"`
	MostPopularCategory string           `json:"most_popular_category,omitempty"`
}

// Aggregator computes insight summaries by scanning stored interactions.
type Aggregator struct {
	store     storage.Storage
	threshold float64
	now       func() time.Time
}

func NewAggregator(store storage.Storage, fullyLearnedThreshold float64) *Aggregator {
	return &Aggregator{
		store:     store,
		threshold: fullyLearnedThreshold,
		now:       time.Now,
	}
}

// UserInsights scans a user's interactions and reports progress against the
// full feature catalog.
func (a *Aggregator) UserInsights(ctx context.Context, userID int64) (*UserInsights, error) {
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	interactions, err := a.store.ListUserInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing interactions: %w", err)
	}

	features, err := a.store.ListFeatures(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing features: %w", err)
	}
	featuresByID := make(map[int64]*models.Feature, len(features))
	for _, f := range features {
		featuresByID[f.ID] = f
	}

	insights := &UserInsights{
		UserID:               user.ID,
		DiscoveryScore:       user.DiscoveryScore,
		TotalFeatures:        len(features),
		CategoryDistribution: map[string]int{},
	}

	var earliest time.Time
	for _, interaction := range interactions {
		if interaction.DiscoveryStatus > 0 {
			insights.DiscoveredFeatures++
			if feature, ok := featuresByID[interaction.FeatureID]; ok {
				insights.CategoryDistribution[feature.Category]++
			}
		}
		if interaction.DiscoveryStatus >= a.threshold {
			insights.FullyLearnedFeatures++
		}
		if earliest.IsZero() || interaction.LastInteraction.Before(earliest) {
			earliest = interaction.LastInteraction
		}
	}
	if earliest.IsZero() {
		earliest = user.CreatedAt
	}

	if insights.TotalFeatures > 0 {
		insights.DiscoveryRate = float64(insights.DiscoveredFeatures) / float64(insights.TotalFeatures)
	}
	insights.TimeSpentHours = a.now().Sub(earliest).Hours()
	if insights.TimeSpentHours > 0 {
		insights.Efficiency = float64(insights.DiscoveredFeatures) / insights.TimeSpentHours
	}
	return insights, nil
}

// FeatureInsights reports adoption across all features and users.
func (a *Aggregator) FeatureInsights(ctx context.Context) (*FeatureInsights, error) {
	features, err := a.store.ListFeatures(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing features: %w", err)
	}

	totalUsers, err := a.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	result := &FeatureInsights{
		FeatureInsights: []FeatureInsight{},
		TotalFeatures:   len(features),
	}

	categoryCounts := map[string]int{}
	totalComplexity := 0

	for _, feature := range features {
		interactions, err := a.store.ListFeatureInteractions(ctx, feature.ID)
		if err != nil {
			return nil, fmt.Errorf("listing interactions for feature %d: %w", feature.ID, err)
		}

		insight := FeatureInsight{
			FeatureID:  feature.ID,
			Name:       feature.Name,
			Category:   feature.Category,
			Complexity: feature.Complexity,
			Popularity: feature.Popularity,
		}
		if totalUsers > 0 {
			insight.DiscoveryRate = float64(len(interactions)) / float64(totalUsers)
		}

		var ratingSum, ratingCount, automated float64
		for _, interaction := range interactions {
			if interaction.Rating != nil {
				ratingSum += float64(*interaction.Rating)
				ratingCount++
			}
			if interaction.AutomationUses > 0 {
				automated++
			}
		}
		if ratingCount > 0 {
			insight.AvgRating = ratingSum / ratingCount
		}
		if len(interactions) > 0 {
			insight.AutomationRate = automated / float64(len(interactions))
		}

		result.FeatureInsights = append(result.FeatureInsights, insight)
		categoryCounts[feature.Category]++
		totalComplexity += feature.Complexity
	}

	if len(features) > 0 {
		result.AvgComplexity = float64(totalComplexity) / float64(len(features))
	}
	result.MostPopularCategory = topCategory(categoryCounts)
	return result, nil
}

// topCategory picks the category with the most features, breaking ties by
// the lexicographically smallest name so the result is deterministic.
func topCategory(counts map[string]int) string {
	best := ""
	bestCount := 0
	for category, count := range counts {
		if count > bestCount || (count == bestCount && bestCount > 0 && category < best) {
			best = category
			bestCount = count
		}
	}
	return best
}
