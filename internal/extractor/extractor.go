// Package extractor turns a raw HTML snapshot of a product page into a
// structured PageContext. Extraction is heuristic and fault tolerant: a
// failing sub-step degrades to an empty result for that step only, and a
// failure to parse the document at all degrades to a minimal error context.
package extractor

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/xaenox/feature-scout/internal/models"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var (
	activeClassRe     = regexp.MustCompile(`(?i)\b(active|selected|current)\b`)
	breadcrumbClassRe = regexp.MustCompile(`(?i)breadcrumb`)
)

type Extractor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses markup and collects everything the recommendation prompts
// care about. It never fails outward: malformed or empty markup yields a
// minimal context whose error_messages describe the problem.
func (e *Extractor) Extract(markup, currentURL string) models.PageContext {
	if strings.TrimSpace(markup) == "" {
		return e.errorContext(currentURL, fmt.Errorf("empty markup"))
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		e.logger.Error("failed to parse markup", zap.Error(err), zap.String("url", currentURL))
		return e.errorContext(currentURL, err)
	}

	pc := models.PageContext{
		URL:            currentURL,
		Title:          "Unknown Page",
		CurrentSection: "Unknown",
		FormFields:     []models.FormField{},
		NavItems:       []models.NavItem{},
		Headings:       []string{},
		Buttons:        []models.Button{},
		FeatureHints:   []string{},
		ErrorMessages:  []string{},
	}

	e.step("title", func() { pc.Title = extractTitle(doc, currentURL) })
	e.step("form_fields", func() { pc.FormFields = extractFormFields(doc) })
	e.step("nav_items", func() { pc.NavItems = extractNavItems(doc, currentURL) })
	e.step("headings", func() { pc.Headings = extractHeadings(doc) })
	e.step("buttons", func() { pc.Buttons = extractButtons(doc) })
	e.step("potential_features", func() { pc.FeatureHints = extractFeatureHints(doc) })
	e.step("error_messages", func() { pc.ErrorMessages = extractErrorMessages(doc) })
	e.step("current_section", func() { pc.CurrentSection = extractSection(doc, currentURL) })
	e.step("metadata", func() { pc.Metadata = extractMetadata(doc) })
	e.step("user_info", func() { pc.UserInfo = extractUserInfo(doc) })
	e.step("domain", func() { pc.Domain = extractDomain(currentURL) })

	return pc
}

// step isolates one sub-extraction so a panic in a single heuristic cannot
// take down the whole extraction.
func (e *Extractor) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("context extraction step failed",
				zap.String("step", name),
				zap.Any("reason", r))
		}
	}()
	fn()
}

func (e *Extractor) errorContext(currentURL string, err error) models.PageContext {
	return models.PageContext{
		Title:          "Error extracting context",
		URL:            currentURL,
		CurrentSection: "Unknown",
		FormFields:     []models.FormField{},
		NavItems:       []models.NavItem{},
		Headings:       []string{},
		Buttons:        []models.Button{},
		FeatureHints:   []string{},
		ErrorMessages:  []string{fmt.Sprintf("context extraction failed: %v", err)},
		Domain:         extractDomain(currentURL),
	}
}

// extractTitle prefers the document title, then the first h1, then the last
// URL path segment.
func extractTitle(doc *html.Node, currentURL string) string {
	if titles := findAll(doc, func(n *html.Node) bool { return n.Data == "title" }); len(titles) > 0 {
		if t := nodeText(titles[0]); t != "" {
			return t
		}
	}
	for _, h1 := range findAll(doc, func(n *html.Node) bool { return n.Data == "h1" }) {
		if t := nodeText(h1); t != "" {
			return t
		}
	}
	if seg := lastPathSegment(currentURL); seg != "" {
		return humanize(seg)
	}
	return "Unknown Page"
}

// extractSection resolves where in the product the user currently is:
// breadcrumb trail first, then any active element, then the URL.
func extractSection(doc *html.Node, currentURL string) string {
	for _, bc := range findAll(doc, func(n *html.Node) bool { return breadcrumbClassRe.MatchString(classAttr(n)) }) {
		links := findAll(bc, func(n *html.Node) bool { return n.Data == "a" })
		for i := len(links) - 1; i >= 0; i-- {
			if t := nodeText(links[i]); t != "" {
				return t
			}
		}
	}
	for _, n := range findAll(doc, func(n *html.Node) bool { return activeClassRe.MatchString(classAttr(n)) }) {
		if t := nodeText(n); t != "" {
			return t
		}
	}
	if seg := lastPathSegment(currentURL); seg != "" {
		return humanize(seg)
	}
	return "Unknown"
}

func extractDomain(currentURL string) string {
	u, err := url.Parse(currentURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// humanize turns a URL slug like "task-board" into "Task Board".
func humanize(segment string) string {
	segment = strings.ReplaceAll(segment, "-", " ")
	segment = strings.ReplaceAll(segment, "_", " ")
	words := strings.Fields(segment)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
