package assistant

import "encoding/json"

// FeatureSummary is the slice of a feature embedded into prompts.
type FeatureSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Complexity  int    `json:"complexity,omitempty"`
}

// RecommendedFeature is one model-suggested feature. All four fields are
// required; items with missing fields are dropped during validation.
type RecommendedFeature struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Nudge  string `json:"nudge"`
}

// Recommendation is the validated result of a recommendation call.
type Recommendation struct {
	RecommendedFeatures []RecommendedFeature `json:"recommended_features"`
	Explanation         string               `json:"explanation"`
	AutomationPossible  bool                 `json:"automation_possible"`
}

// Tutorial is the validated result of a tutorial call.
type Tutorial struct {
	Title           string   `json:"title"`
	Introduction    string   `json:"introduction"`
	Steps           []string `json:"steps"`
	Tips            []string `json:"tips"`
	RelatedFeatures []string `json:"related_features"`
	CanAutomate     bool     `json:"can_automate"`
}

// Automation is the validated result of an automation call.
type Automation struct {
	Steps       []string `json:"steps"`
	Explanation string   `json:"explanation"`
	Success     bool     `json:"success"`
}

// UnmarshalJSON treats an absent "success" key as success; the model only
// reports false explicitly.
func (a *Automation) UnmarshalJSON(data []byte) error {
	type alias Automation
	aux := struct {
		*alias
		Success *bool `json:"success"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Success = aux.Success == nil || *aux.Success
	return nil
}
