package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/feature-scout/internal/assistant"
	"github.com/xaenox/feature-scout/internal/extractor"
	"github.com/xaenox/feature-scout/internal/models"
	"github.com/xaenox/feature-scout/internal/scoring"
	"github.com/xaenox/feature-scout/internal/storage"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAssistant returns canned responses and records what it was asked.
type stubAssistant struct {
	recommendCalls int
	lastQuery      string
	lastAvailable  []assistant.FeatureSummary

	recommendation assistant.Recommendation
	tutorial       assistant.Tutorial
	automation     assistant.Automation
}

func (a *stubAssistant) Recommend(ctx context.Context, userRole, experienceLevel string, pageContext models.PageContext, userQuery string, discovered, available []assistant.FeatureSummary) assistant.Recommendation {
	a.recommendCalls++
	a.lastQuery = userQuery
	a.lastAvailable = available
	return a.recommendation
}

func (a *stubAssistant) GenerateTutorial(ctx context.Context, feature assistant.FeatureSummary, userRole, experienceLevel string, pageContext *models.PageContext) assistant.Tutorial {
	return a.tutorial
}

func (a *stubAssistant) GenerateAutomation(ctx context.Context, feature assistant.FeatureSummary, userRole string, pageContext *models.PageContext) assistant.Automation {
	return a.automation
}

type testEnv struct {
	router    *gin.Engine
	store     *storage.MemoryStorage
	assistant *stubAssistant
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := storage.NewMemoryStorage()
	stub := &stubAssistant{}
	scorer := scoring.NewScorer(store, scoring.DefaultConfig(), logger)
	aggregator := scoring.NewAggregator(store, scoring.DefaultConfig().FullyLearnedThreshold)
	srv := New(store, extractor.New(logger), stub, scorer, aggregator, logger)
	return &testEnv{router: srv.Router(), store: store, assistant: stub}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *testEnv) seedUser(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{Username: "jane", Email: "jane@acme.com", ProductRole: "manager", ExperienceLevel: "beginner"}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) seedFeature(t *testing.T, name, category string) *models.Feature {
	t.Helper()
	feature := &models.Feature{Name: name, Description: name + " description", Category: category, Complexity: 2}
	require.NoError(t, e.store.CreateFeature(context.Background(), feature))
	return feature
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/users/", gin.H{
		"username":         "jane",
		"email":            "jane@acme.com",
		"product_role":     "manager",
		"experience_level": "beginner",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	user := decodeBody[models.User](t, w)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "jane", user.Username)
	assert.Equal(t, 0.0, user.DiscoveryScore)
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing_username", gin.H{"email": "a@b.c", "product_role": "r", "experience_level": "e"}},
		{"bad_email", gin.H{"username": "u", "email": "not-an-email", "product_role": "r", "experience_level": "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/users/", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody[errorEnvelope](t, w)
			assert.Equal(t, "invalid_request", body.Error.Code)
		})
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t)

	w := env.do(t, http.MethodPost, "/users/", gin.H{
		"username":         "jane",
		"email":            "jane@acme.com",
		"product_role":     "manager",
		"experience_level": "beginner",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[errorEnvelope](t, w)
	assert.Equal(t, "duplicate", body.Error.Code)
}

func TestGetUserNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/users/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUsersPagination(t *testing.T) {
	env := newTestEnv(t)
	for _, u := range []string{"a", "b", "c"} {
		require.NoError(t, env.store.CreateUser(context.Background(), &models.User{Username: u, Email: u + "@acme.com"}))
	}

	w := env.do(t, http.MethodGet, "/users/?skip=1&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decodeBody[[]models.User](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, "b", users[0].Username)

	w = env.do(t, http.MethodGet, "/users/", nil)
	users = decodeBody[[]models.User](t, w)
	assert.Len(t, users, 3)
}

func TestCreateFeature(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/features/", gin.H{
		"name":        "Bulk Export",
		"description": "Export everything",
		"category":    "reporting",
		"complexity":  2,
		"keywords":    []string{"export", "csv"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	feature := decodeBody[models.Feature](t, w)
	assert.NotZero(t, feature.ID)
	assert.Equal(t, 0.0, feature.Popularity)
	assert.Equal(t, []string{"export", "csv"}, feature.Keywords)
}

func TestCreateFeatureComplexityBounds(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/features/", gin.H{
		"name":        "Bad",
		"description": "d",
		"category":    "c",
		"complexity":  6,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeContext(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	discovered := env.seedFeature(t, "Dashboards", "reporting")
	available := env.seedFeature(t, "Bulk Export", "reporting")

	require.NoError(t, env.store.CreateInteraction(context.Background(), &models.Interaction{
		UserID: user.ID, FeatureID: discovered.ID, DiscoveryStatus: 0.5,
	}))

	env.assistant.recommendation = assistant.Recommendation{
		RecommendedFeatures: []assistant.RecommendedFeature{
			{ID: available.ID, Name: available.Name, Reason: "fits", Nudge: "try it"},
		},
		Explanation:        "matches your workflow",
		AutomationPossible: true,
	}

	w := env.do(t, http.MethodPost, "/context/analyze", gin.H{
		"user_id":       user.ID,
		"html_snapshot": `<html><head><title>Reports</title></head><body><h1>Reports</h1></body></html>`,
		"current_url":   "https://app.acme.com/reports",
		"user_query":    "how do I export",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[analyzeContextResponse](t, w)
	assert.NotEmpty(t, resp.ContextID)
	assert.Equal(t, "Reports", resp.ExtractedContext.Title)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "Bulk Export", resp.Recommendations[0].Name)
	assert.True(t, resp.CanAutomate)

	// only undiscovered features are offered to the assistant
	assert.Equal(t, 1, env.assistant.recommendCalls)
	assert.Equal(t, "how do I export", env.assistant.lastQuery)
	require.Len(t, env.assistant.lastAvailable, 1)
	assert.Equal(t, available.ID, env.assistant.lastAvailable[0].ID)

	// the snapshot was persisted
	snapshots, err := env.store.ListUserSnapshots(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, resp.ContextID, snapshots[0].ID)
}

func TestAnalyzeContextAllDiscovered(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	feature := env.seedFeature(t, "Dashboards", "reporting")
	require.NoError(t, env.store.CreateInteraction(context.Background(), &models.Interaction{
		UserID: user.ID, FeatureID: feature.ID, DiscoveryStatus: 0.5,
	}))

	w := env.do(t, http.MethodPost, "/context/analyze", gin.H{
		"user_id":     user.ID,
		"current_url": "https://app.acme.com/reports",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[analyzeContextResponse](t, w)
	assert.Equal(t, "You have already discovered all available features!", resp.Explanation)
	assert.Empty(t, resp.Recommendations)
	assert.Zero(t, env.assistant.recommendCalls)
}

func TestAnalyzeContextUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/context/analyze", gin.H{
		"user_id":     999,
		"current_url": "https://app.acme.com/reports",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTutorialEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	feature := env.seedFeature(t, "Bulk Export", "reporting")

	env.assistant.tutorial = assistant.Tutorial{
		Title:       "How to Use Bulk Export",
		Steps:       []string{"Open the menu", "Pick a format", "Export"},
		CanAutomate: true,
	}

	w := env.do(t, http.MethodPost, "/features/1/tutorial", gin.H{"user_id": user.ID})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[tutorialResponse](t, w)
	assert.NotZero(t, resp.InteractionID)
	assert.Equal(t, "How to Use Bulk Export", resp.Tutorial.Title)
	assert.InDelta(t, 0.3, resp.DiscoveryStatus, 1e-9)
	assert.True(t, resp.CanAutomate)

	interaction, err := env.store.FindInteraction(context.Background(), user.ID, feature.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, interaction.TutorialViews)
}

func TestAutomateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	feature := env.seedFeature(t, "Bulk Export", "reporting")

	env.assistant.automation = assistant.Automation{
		Steps:       []string{"Ran the export"},
		Explanation: "done",
		Success:     true,
	}

	w := env.do(t, http.MethodPost, "/features/1/automate", gin.H{"user_id": user.ID})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[automateResponse](t, w)
	assert.True(t, resp.Automation.Success)
	assert.InDelta(t, 0.5, resp.DiscoveryStatus, 1e-9)

	interaction, err := env.store.FindInteraction(context.Background(), user.ID, feature.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, interaction.AutomationUses)
}

func TestTutorialUnknownFeature(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)

	w := env.do(t, http.MethodPost, "/features/42/tutorial", gin.H{"user_id": user.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	feature := env.seedFeature(t, "Bulk Export", "reporting")
	interaction := &models.Interaction{UserID: user.ID, FeatureID: feature.ID, DiscoveryStatus: 0.3}
	require.NoError(t, env.store.CreateInteraction(context.Background(), interaction))

	w := env.do(t, http.MethodPost, "/feedback", gin.H{
		"interaction_id": interaction.ID,
		"rating":         4,
		"feedback_text":  "useful",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "success", body["status"])

	stored, err := env.store.GetInteraction(context.Background(), interaction.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Rating)
	assert.Equal(t, 4, *stored.Rating)
}

func TestFeedbackInvalidRating(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	feature := env.seedFeature(t, "Bulk Export", "reporting")
	interaction := &models.Interaction{UserID: user.ID, FeatureID: feature.ID}
	require.NoError(t, env.store.CreateInteraction(context.Background(), interaction))

	w := env.do(t, http.MethodPost, "/feedback", gin.H{
		"interaction_id": interaction.ID,
		"rating":         6,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[errorEnvelope](t, w)
	assert.Equal(t, "invalid_rating", body.Error.Code)
}

func TestDiscoveredFeatures(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	known := env.seedFeature(t, "Dashboards", "reporting")
	barely := env.seedFeature(t, "Webhooks", "integrations")

	ctx := context.Background()
	require.NoError(t, env.store.CreateInteraction(ctx, &models.Interaction{UserID: user.ID, FeatureID: known.ID, DiscoveryStatus: 0.7}))
	require.NoError(t, env.store.CreateInteraction(ctx, &models.Interaction{UserID: user.ID, FeatureID: barely.ID, DiscoveryStatus: 0.3}))

	w := env.do(t, http.MethodGet, "/users/1/discovered_features", nil)
	require.Equal(t, http.StatusOK, w.Code)

	features := decodeBody[[]models.Feature](t, w)
	require.Len(t, features, 1)
	assert.Equal(t, "Dashboards", features[0].Name)
}

func TestUserInsightsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t)
	feature := env.seedFeature(t, "Dashboards", "reporting")
	require.NoError(t, env.store.CreateInteraction(context.Background(), &models.Interaction{
		UserID: user.ID, FeatureID: feature.ID, DiscoveryStatus: 0.95,
	}))

	w := env.do(t, http.MethodGet, "/insights/user/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	insights := decodeBody[scoring.UserInsights](t, w)
	assert.Equal(t, 1, insights.DiscoveredFeatures)
	assert.Equal(t, 1, insights.FullyLearnedFeatures)
	assert.Equal(t, 1, insights.TotalFeatures)
}

func TestFeatureInsightsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedFeature(t, "Dashboards", "reporting")

	w := env.do(t, http.MethodGet, "/insights/features", nil)
	require.Equal(t, http.StatusOK, w.Code)

	insights := decodeBody[scoring.FeatureInsights](t, w)
	assert.Equal(t, 1, insights.TotalFeatures)
	assert.Equal(t, "reporting", insights.MostPopularCategory)
}
