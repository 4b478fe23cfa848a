package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xaenox/feature-scout/internal/assistant"
	"github.com/xaenox/feature-scout/internal/models"
)

type analyzeContextRequest struct {
	UserID       int64  `json:"user_id" binding:"required"`
	HTMLSnapshot string `json:"html_snapshot"`
	CurrentURL   string `json:"current_url" binding:"required"`
	UserQuery    string `json:"user_query"`
}

type analyzeContextResponse struct {
	ContextID        string                          `json:"context_id"`
	ExtractedContext models.PageContext              `json:"extracted_context"`
	Recommendations  []assistant.RecommendedFeature  `json:"recommendations"`
	Explanation      string                          `json:"explanation"`
	CanAutomate      bool                            `json:"can_automate"`
}

// analyzeContext extracts structured context from a page snapshot, stores
// it, and asks the assistant what the user should discover next.
func (s *Server) analyzeContext(c *gin.Context) {
	var req analyzeContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	ctx := c.Request.Context()

	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		s.respondStorageError(c, err, "user")
		return
	}

	pageContext := s.extractor.Extract(req.HTMLSnapshot, req.CurrentURL)

	snapshot := &models.ContextSnapshot{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		URL:       req.CurrentURL,
		Query:     req.UserQuery,
		Context:   pageContext,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
		s.respondStorageError(c, err, "context snapshot")
		return
	}

	interactions, err := s.store.ListUserInteractions(ctx, user.ID)
	if err != nil {
		s.respondStorageError(c, err, "interaction")
		return
	}
	discoveredIDs := make(map[int64]bool)
	for _, interaction := range interactions {
		if interaction.DiscoveryStatus > 0 {
			discoveredIDs[interaction.FeatureID] = true
		}
	}

	features, err := s.store.ListFeatures(ctx, 0, 0)
	if err != nil {
		s.respondStorageError(c, err, "feature")
		return
	}

	var discovered, available []assistant.FeatureSummary
	for _, feature := range features {
		summary := assistant.FeatureSummary{
			ID:          feature.ID,
			Name:        feature.Name,
			Description: feature.Description,
			Category:    feature.Category,
		}
		if discoveredIDs[feature.ID] {
			discovered = append(discovered, summary)
		} else {
			summary.Complexity = feature.Complexity
			available = append(available, summary)
		}
	}

	if len(available) == 0 {
		c.JSON(http.StatusOK, analyzeContextResponse{
			ContextID:        snapshot.ID,
			ExtractedContext: pageContext,
			Recommendations:  []assistant.RecommendedFeature{},
			Explanation:      "You have already discovered all available features!",
			CanAutomate:      false,
		})
		return
	}

	recommendation := s.assistant.Recommend(ctx, user.ProductRole, user.ExperienceLevel, pageContext, req.UserQuery, discovered, available)

	c.JSON(http.StatusOK, analyzeContextResponse{
		ContextID:        snapshot.ID,
		ExtractedContext: pageContext,
		Recommendations:  recommendation.RecommendedFeatures,
		Explanation:      recommendation.Explanation,
		CanAutomate:      recommendation.AutomationPossible,
	})
}

type tutorialRequest struct {
	UserID      int64               `json:"user_id" binding:"required"`
	ContextData *models.PageContext `json:"context_data"`
}

type tutorialResponse struct {
	InteractionID   int64              `json:"interaction_id"`
	Tutorial        assistant.Tutorial `json:"tutorial"`
	DiscoveryStatus float64            `json:"discovery_status"`
	CanAutomate     bool               `json:"can_automate"`
}

func (s *Server) tutorial(c *gin.Context) {
	featureID, ok := pathID(c)
	if !ok {
		return
	}
	var req tutorialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	ctx := c.Request.Context()

	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		s.respondStorageError(c, err, "user")
		return
	}
	feature, err := s.store.GetFeature(ctx, featureID)
	if err != nil {
		s.respondStorageError(c, err, "feature")
		return
	}

	tutorial := s.assistant.GenerateTutorial(ctx, summarize(feature), user.ProductRole, user.ExperienceLevel, req.ContextData)

	interaction, err := s.scorer.RecordTutorialView(ctx, user.ID, feature.ID)
	if err != nil {
		s.respondStorageError(c, err, "interaction")
		return
	}

	c.JSON(http.StatusOK, tutorialResponse{
		InteractionID:   interaction.ID,
		Tutorial:        tutorial,
		DiscoveryStatus: interaction.DiscoveryStatus,
		CanAutomate:     tutorial.CanAutomate,
	})
}

type automateRequest struct {
	UserID      int64               `json:"user_id" binding:"required"`
	ContextData *models.PageContext `json:"context_data"`
}

type automateResponse struct {
	InteractionID   int64                `json:"interaction_id"`
	Automation      assistant.Automation `json:"automation"`
	DiscoveryStatus float64              `json:"discovery_status"`
}

func (s *Server) automate(c *gin.Context) {
	featureID, ok := pathID(c)
	if !ok {
		return
	}
	var req automateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	ctx := c.Request.Context()

	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		s.respondStorageError(c, err, "user")
		return
	}
	feature, err := s.store.GetFeature(ctx, featureID)
	if err != nil {
		s.respondStorageError(c, err, "feature")
		return
	}

	automation := s.assistant.GenerateAutomation(ctx, summarize(feature), user.ProductRole, req.ContextData)

	interaction, err := s.scorer.RecordAutomationUse(ctx, user.ID, feature.ID)
	if err != nil {
		s.respondStorageError(c, err, "interaction")
		return
	}

	c.JSON(http.StatusOK, automateResponse{
		InteractionID:   interaction.ID,
		Automation:      automation,
		DiscoveryStatus: interaction.DiscoveryStatus,
	})
}

type feedbackRequest struct {
	InteractionID int64  `json:"interaction_id" binding:"required"`
	Rating        int    `json:"rating" binding:"required"`
	FeedbackText  string `json:"feedback_text"`
}

func (s *Server) feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.scorer.RecordFeedback(c.Request.Context(), req.InteractionID, req.Rating, req.FeedbackText); err != nil {
		s.respondStorageError(c, err, "interaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Feedback recorded successfully",
	})
}

func (s *Server) userInsights(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	insights, err := s.aggregator.UserInsights(c.Request.Context(), id)
	if err != nil {
		s.respondStorageError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, insights)
}

func (s *Server) featureInsights(c *gin.Context) {
	insights, err := s.aggregator.FeatureInsights(c.Request.Context())
	if err != nil {
		s.respondStorageError(c, err, "feature")
		return
	}
	c.JSON(http.StatusOK, insights)
}

func summarize(feature *models.Feature) assistant.FeatureSummary {
	return assistant.FeatureSummary{
		ID:          feature.ID,
		Name:        feature.Name,
		Description: feature.Description,
		Category:    feature.Category,
		Complexity:  feature.Complexity,
	}
}
