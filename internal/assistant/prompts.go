package assistant

import (
	"encoding/json"
	"fmt"

	"github.com/xaenox/feature-scout/internal/models"
)

func recommendationPrompt(userRole, experienceLevel string, context models.PageContext, userQuery string, discovered, available []FeatureSummary) string {
	return fmt.Sprintf(`You are an AI feature discovery agent for a SaaS product. You help users discover
the most relevant features based on their context and needs.

USER INFORMATION:
- Role: %s
- Experience level: %s

CURRENT CONTEXT:
%s

USER QUERY (if any):
%s

FEATURES THE USER HAS ALREADY DISCOVERED:
%s

AVAILABLE FEATURES THE USER HASN'T DISCOVERED YET:
%s

Based on the user's role, experience level, current context, and query (if any),
recommend 2-3 features from the available ones that would be most helpful right now.

For each recommendation, provide:
1. Feature name
2. A brief explanation of why it would be helpful in their current context
3. A gentle nudge to try it out

Finally, indicate whether any of the features could be automatically executed for the user
in their current context.

Return your response STRICTLY in this JSON format:
{
    "recommended_features": [
        {
            "id": feature_id,
            "name": "Feature name",
            "reason": "Why it's helpful now",
            "nudge": "Encouragement to try it"
        }
    ],
    "explanation": "Brief explanation of your recommendation logic",
    "automation_possible": true/false
}`,
		userRole,
		experienceLevel,
		stringifyContext(context),
		userQuery,
		stringifyFeatures(discovered, "No features discovered yet"),
		stringifyFeatures(available, "No features available"),
	)
}

func tutorialPrompt(feature FeatureSummary, userRole, experienceLevel string, context *models.PageContext) string {
	return fmt.Sprintf(`You are an AI feature discovery agent providing a helpful tutorial
for a SaaS product feature.

FEATURE INFORMATION:
- Name: %s
- Description: %s
- Category: %s

USER INFORMATION:
- Role: %s
- Experience level: %s

CURRENT CONTEXT (if available):
%s

Create an engaging, helpful tutorial for this feature that is appropriate for
the user's role and experience level. Make it practical and actionable.

Include:
1. A catchy title
2. A brief introduction explaining the value of this feature
3. Step-by-step instructions (3-5 steps)
4. 1-2 pro tips for advanced usage
5. 1-2 related features they might want to explore next

Also indicate whether this feature could be automated for the user.

Return your response in this JSON format:
{
    "title": "Tutorial title",
    "introduction": "Brief intro and value proposition",
    "steps": [
        "Step 1 description",
        "Step 2 description",
        "Step 3 description"
    ],
    "tips": [
        "Pro tip 1",
        "Pro tip 2"
    ],
    "related_features": [
        "Related feature 1",
        "Related feature 2"
    ],
    "can_automate": true/false
}`,
		feature.Name,
		feature.Description,
		feature.Category,
		userRole,
		experienceLevel,
		stringifyOptionalContext(context),
	)
}

func automationPrompt(feature FeatureSummary, userRole string, context *models.PageContext) string {
	return fmt.Sprintf(`You are an AI feature discovery agent that can automate feature usage
in a SaaS product.

FEATURE INFORMATION:
- Name: %s
- Description: %s

USER INFORMATION:
- Role: %s

CURRENT CONTEXT:
%s

You need to automatically execute this feature for the user in their current context.
Provide a step-by-step breakdown of how you would execute this feature, explaining
each step clearly.

Return your response in this JSON format:
{
    "steps": [
        "Step 1 description",
        "Step 2 description",
        "Step 3 description"
    ],
    "explanation": "Brief explanation of what was done",
    "success": true/false
}`,
		feature.Name,
		feature.Description,
		userRole,
		stringifyOptionalContext(context),
	)
}

func stringifyContext(context models.PageContext) string {
	encoded, err := json.Marshal(context)
	if err != nil {
		return "No context provided"
	}
	return string(encoded)
}

func stringifyOptionalContext(context *models.PageContext) string {
	if context == nil {
		return "No context provided"
	}
	return stringifyContext(*context)
}

func stringifyFeatures(features []FeatureSummary, empty string) string {
	if len(features) == 0 {
		return empty
	}
	encoded, err := json.Marshal(features)
	if err != nil {
		return empty
	}
	return string(encoded)
}
