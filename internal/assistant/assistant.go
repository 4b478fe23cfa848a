// Package assistant calls the external language model to produce feature
// recommendations, tutorials, and automation scripts. Every operation
// degrades instead of failing: parse or transport errors are retried with
// backoff, then retried through a plain single-shot call, and finally
// replaced by a synthetic response.
package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/feature-scout/internal/models"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries  = 3
	defaultMinInterval = 500 * time.Millisecond
	baseDelay          = time.Second
	maxDelay           = 60 * time.Second
)

// completionClient is the slice of the OpenAI client the service uses;
// tests substitute a stub.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	FallbackModel string
	MaxTokens     int
	Temperature   float64
}

type Service struct {
	client        completionClient
	model         string
	fallbackModel string
	maxTokens     int
	temperature   float64
	maxRetries    int
	logger        *zap.Logger
	sink          ResponseSink

	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration

	sleep func(time.Duration)
}

func New(cfg Config, sink ResponseSink, logger *zap.Logger) *Service {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = cfg.Model
	}
	if sink == nil {
		sink = NopSink()
	}

	return &Service{
		client:        openai.NewClientWithConfig(clientConfig),
		model:         cfg.Model,
		fallbackModel: cfg.FallbackModel,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		maxRetries:    defaultMaxRetries,
		logger:        logger,
		sink:          sink,
		minInterval:   defaultMinInterval,
		sleep:         time.Sleep,
	}
}

// Recommend asks the model which undiscovered features the user should try
// next. With nothing left to recommend it short-circuits without a model
// call.
func (s *Service) Recommend(ctx context.Context, userRole, experienceLevel string, pageContext models.PageContext, userQuery string, discovered, available []FeatureSummary) Recommendation {
	if len(available) == 0 {
		s.logger.Warn("no available features to recommend")
		return Recommendation{
			RecommendedFeatures: []RecommendedFeature{},
			Explanation:         "No available features to recommend at this time.",
			AutomationPossible:  false,
		}
	}

	if userQuery == "" {
		userQuery = "No specific query provided"
	}

	prompt := recommendationPrompt(userRole, experienceLevel, pageContext, userQuery, discovered, available)
	result, ok := generate(ctx, s, "recommendation", prompt, normalizeRecommendation)
	if !ok {
		return s.syntheticRecommendation(available)
	}
	return result
}

// normalizeRecommendation substitutes defaults for missing top-level fields
// and drops items missing any required field.
func normalizeRecommendation(r *Recommendation) []string {
	var warnings []string
	if r.RecommendedFeatures == nil {
		r.RecommendedFeatures = []RecommendedFeature{}
		warnings = append(warnings, "recommended_features")
	}
	if r.Explanation == "" {
		r.Explanation = "Features recommended based on your context."
		warnings = append(warnings, "explanation")
	}

	valid := r.RecommendedFeatures[:0]
	for _, item := range r.RecommendedFeatures {
		if item.ID == 0 || item.Name == "" || item.Reason == "" || item.Nudge == "" {
			warnings = append(warnings, fmt.Sprintf("recommended_features item %q", item.Name))
			continue
		}
		valid = append(valid, item)
	}
	r.RecommendedFeatures = valid
	return warnings
}

// syntheticRecommendation is the last resort when both the structured and
// plain calls failed.
func (s *Service) syntheticRecommendation(available []FeatureSummary) Recommendation {
	first := FeatureSummary{ID: 1, Name: "Example Feature"}
	if len(available) > 0 {
		first = available[0]
	}
	return Recommendation{
		RecommendedFeatures: []RecommendedFeature{
			{
				ID:     first.ID,
				Name:   first.Name,
				Reason: "Based on your context, this would be helpful",
				Nudge:  "Give it a try to streamline your workflow",
			},
		},
		Explanation:        "Recommendations based on your current context and role",
		AutomationPossible: false,
	}
}

// GenerateTutorial produces a step-by-step tutorial for one feature,
// tailored to the user's role and experience.
func (s *Service) GenerateTutorial(ctx context.Context, feature FeatureSummary, userRole, experienceLevel string, pageContext *models.PageContext) Tutorial {
	prompt := tutorialPrompt(feature, userRole, experienceLevel, pageContext)
	result, ok := generate(ctx, s, "tutorial", prompt, func(t *Tutorial) []string {
		return normalizeTutorial(t, feature)
	})
	if !ok {
		return syntheticTutorial(feature)
	}
	return result
}

func normalizeTutorial(t *Tutorial, feature FeatureSummary) []string {
	var warnings []string
	if t.Title == "" {
		t.Title = fmt.Sprintf("How to Use %s", feature.Name)
		warnings = append(warnings, "title")
	}
	if t.Introduction == "" {
		t.Introduction = feature.Description
		warnings = append(warnings, "introduction")
	}
	if len(t.Steps) == 0 {
		t.Steps = []string{"Navigate to the feature", "Configure settings", "Apply changes"}
		warnings = append(warnings, "steps")
	}
	if t.Tips == nil {
		t.Tips = []string{}
	}
	if t.RelatedFeatures == nil {
		t.RelatedFeatures = []string{}
	}
	return warnings
}

func syntheticTutorial(feature FeatureSummary) Tutorial {
	return Tutorial{
		Title:        fmt.Sprintf("How to Use %s", feature.Name),
		Introduction: feature.Description,
		Steps: []string{
			"Navigate to the feature in the menu",
			"Configure your settings",
			"Apply changes and see results",
		},
		Tips: []string{
			"Use keyboard shortcuts for faster operation",
			"Combine with other features for maximum impact",
		},
		RelatedFeatures: []string{
			"Similar Feature 1",
			"Similar Feature 2",
		},
		CanAutomate: true,
	}
}

// GenerateAutomation produces an executable step breakdown for running one
// feature on the user's behalf.
func (s *Service) GenerateAutomation(ctx context.Context, feature FeatureSummary, userRole string, pageContext *models.PageContext) Automation {
	prompt := automationPrompt(feature, userRole, pageContext)
	result, ok := generate(ctx, s, "automation", prompt, func(a *Automation) []string {
		return normalizeAutomation(a, feature)
	})
	if !ok {
		return syntheticAutomation()
	}
	return result
}

func normalizeAutomation(a *Automation, feature FeatureSummary) []string {
	var warnings []string
	if len(a.Steps) == 0 {
		a.Steps = []string{"Identify feature", "Apply settings", "Execute"}
		warnings = append(warnings, "steps")
	}
	if a.Explanation == "" {
		a.Explanation = fmt.Sprintf("Automated %s based on your context", feature.Name)
		warnings = append(warnings, "explanation")
	}
	return warnings
}

func syntheticAutomation() Automation {
	return Automation{
		Steps: []string{
			"Identified the correct feature to automate",
			"Applied optimal settings based on your context",
			"Executed the feature successfully",
		},
		Explanation: "Automated execution of the feature based on your current context",
		Success:     true,
	}
}
