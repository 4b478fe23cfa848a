package models

// PageContext is the structured result of extracting one HTML snapshot.
// It is embedded in a ContextSnapshot and serialized into prompts; it is
// never persisted on its own.
type PageContext struct {
	Title          string            `json:"title"`
	URL            string            `json:"url"`
	CurrentSection string            `json:"current_section"`
	FormFields     []FormField       `json:"form_fields"`
	NavItems       []NavItem         `json:"nav_items"`
	Headings       []string          `json:"headings"`
	Buttons        []Button          `json:"buttons"`
	FeatureHints   []string          `json:"potential_features"`
	ErrorMessages  []string          `json:"error_messages"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	UserInfo       map[string]string `json:"user_info,omitempty"`
	Domain         string            `json:"domain"`
}

// FormField describes one editable field found inside a form
type FormField struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
	Label       string `json:"label"`
	Value       string `json:"value"`
}

// NavItem describes one link found in a navigation container
type NavItem struct {
	Text    string `json:"text"`
	Href    string `json:"href"`
	Active  bool   `json:"active"`
	HasIcon bool   `json:"has_icon"`
}

// Button describes one clickable control on the page
type Button struct {
	Text     string   `json:"text"`
	ID       string   `json:"id"`
	Classes  []string `json:"classes"`
	Disabled bool     `json:"disabled"`
	Type     string   `json:"type"`
}
