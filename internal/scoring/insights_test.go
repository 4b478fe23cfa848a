package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/feature-scout/internal/models"
	"github.com/xaenox/feature-scout/internal/storage"
)

func intPtr(v int) *int { return &v }

func TestUserInsights(t *testing.T) {
	store := storage.NewMemoryStorage()
	ctx := context.Background()

	user := &models.User{Username: "jane", Email: "jane@acme.com", DiscoveryScore: 2.1}
	require.NoError(t, store.CreateUser(ctx, user))

	catalog := []*models.Feature{
		{Name: "Bulk Export", Category: "reporting"},
		{Name: "Dashboards", Category: "reporting"},
		{Name: "Webhooks", Category: "integrations"},
		{Name: "Templates", Category: "productivity"},
	}
	for _, f := range catalog {
		require.NoError(t, store.CreateFeature(ctx, f))
	}

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	seed := []*models.Interaction{
		{UserID: user.ID, FeatureID: catalog[0].ID, DiscoveryStatus: 0.95, LastInteraction: base},
		{UserID: user.ID, FeatureID: catalog[1].ID, DiscoveryStatus: 0.3, LastInteraction: base.Add(time.Hour)},
		{UserID: user.ID, FeatureID: catalog[2].ID, DiscoveryStatus: 0, LastInteraction: base.Add(2 * time.Hour)},
	}
	for _, i := range seed {
		require.NoError(t, store.CreateInteraction(ctx, i))
	}

	agg := NewAggregator(store, 0.9)
	agg.now = func() time.Time { return base.Add(10 * time.Hour) }

	insights, err := agg.UserInsights(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.ID, insights.UserID)
	assert.InDelta(t, 2.1, insights.DiscoveryScore, 1e-9)
	assert.Equal(t, 2, insights.DiscoveredFeatures)
	assert.Equal(t, 1, insights.FullyLearnedFeatures)
	assert.Equal(t, 4, insights.TotalFeatures)
	assert.InDelta(t, 0.5, insights.DiscoveryRate, 1e-9)

	// zero-status interactions do not count toward the distribution
	assert.Equal(t, map[string]int{"reporting": 2}, insights.CategoryDistribution)

	// time runs from the earliest interaction
	assert.InDelta(t, 10, insights.TimeSpentHours, 1e-9)
	assert.InDelta(t, 0.2, insights.Efficiency, 1e-9)
}

func TestUserInsightsNoInteractions(t *testing.T) {
	store := storage.NewMemoryStorage()
	ctx := context.Background()

	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	user := &models.User{Username: "fresh", Email: "fresh@acme.com", CreatedAt: created}
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.CreateFeature(ctx, &models.Feature{Name: "Bulk Export", Category: "reporting"}))

	agg := NewAggregator(store, 0.9)
	agg.now = func() time.Time { return created.Add(5 * time.Hour) }

	insights, err := agg.UserInsights(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, insights.DiscoveredFeatures)
	assert.Equal(t, 0.0, insights.DiscoveryRate)
	assert.Equal(t, 0.0, insights.Efficiency)
	// falls back to account age
	assert.InDelta(t, 5, insights.TimeSpentHours, 1e-9)
	assert.NotNil(t, insights.CategoryDistribution)
}

func TestUserInsightsUnknownUser(t *testing.T) {
	agg := NewAggregator(storage.NewMemoryStorage(), 0.9)
	_, err := agg.UserInsights(context.Background(), 7)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFeatureInsights(t *testing.T) {
	store := storage.NewMemoryStorage()
	ctx := context.Background()

	users := []*models.User{
		{Username: "a", Email: "a@acme.com"},
		{Username: "b", Email: "b@acme.com"},
		{Username: "c", Email: "c@acme.com"},
		{Username: "d", Email: "d@acme.com"},
	}
	for _, u := range users {
		require.NoError(t, store.CreateUser(ctx, u))
	}

	export := &models.Feature{Name: "Bulk Export", Category: "reporting", Complexity: 2, Popularity: 0.8}
	hooks := &models.Feature{Name: "Webhooks", Category: "integrations", Complexity: 4}
	require.NoError(t, store.CreateFeature(ctx, export))
	require.NoError(t, store.CreateFeature(ctx, hooks))

	now := time.Now()
	seed := []*models.Interaction{
		{UserID: users[0].ID, FeatureID: export.ID, DiscoveryStatus: 1, Rating: intPtr(5), AutomationUses: 2, LastInteraction: now},
		{UserID: users[1].ID, FeatureID: export.ID, DiscoveryStatus: 0.5, Rating: intPtr(3), LastInteraction: now},
		{UserID: users[2].ID, FeatureID: export.ID, DiscoveryStatus: 0.3, LastInteraction: now},
	}
	for _, i := range seed {
		require.NoError(t, store.CreateInteraction(ctx, i))
	}

	agg := NewAggregator(store, 0.9)
	result, err := agg.FeatureInsights(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalFeatures)
	assert.InDelta(t, 3.0, result.AvgComplexity, 1e-9)
	require.Len(t, result.FeatureInsights, 2)

	exportInsight := result.FeatureInsights[0]
	assert.Equal(t, export.ID, exportInsight.FeatureID)
	assert.InDelta(t, 0.75, exportInsight.DiscoveryRate, 1e-9)
	assert.InDelta(t, 4.0, exportInsight.AvgRating, 1e-9)
	assert.InDelta(t, 1.0/3.0, exportInsight.AutomationRate, 1e-9)
	assert.InDelta(t, 0.8, exportInsight.Popularity, 1e-9)

	hooksInsight := result.FeatureInsights[1]
	assert.Equal(t, 0.0, hooksInsight.DiscoveryRate)
	assert.Equal(t, 0.0, hooksInsight.AvgRating)
	assert.Equal(t, 0.0, hooksInsight.AutomationRate)

	// one feature per category, tie broken alphabetically
	assert.Equal(t, "integrations", result.MostPopularCategory)
}

func TestFeatureInsightsEmptyCatalog(t *testing.T) {
	agg := NewAggregator(storage.NewMemoryStorage(), 0.9)
	result, err := agg.FeatureInsights(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalFeatures)
	assert.Equal(t, 0.0, result.AvgComplexity)
	assert.Empty(t, result.FeatureInsights)
	assert.Equal(t, "", result.MostPopularCategory)
}

func TestTopCategory(t *testing.T) {
	assert.Equal(t, "", topCategory(map[string]int{}))
	assert.Equal(t, "reporting", topCategory(map[string]int{"reporting": 3, "integrations": 1}))
	assert.Equal(t, "alpha", topCategory(map[string]int{"beta": 2, "alpha": 2, "gamma": 1}))
}
