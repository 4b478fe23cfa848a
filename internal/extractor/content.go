package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// featureKeywords flags short text fragments that probably name a product
// feature. Matched against element text and class names.
var featureKeywords = []string{
	"feature", "tool", "function", "capability", "module", "dashboard",
	"report", "analytics", "automation", "integration", "export", "import",
	"settings", "configuration", "customize", "workflow", "template",
	"notification", "alert", "monitor",
}

var (
	errorClassRe    = regexp.MustCompile(`(?i)error|alert|warning|danger|notification`)
	userInfoClassRe = regexp.MustCompile(`(?i)user|profile|account`)
)

// extractHeadings returns h1-h4 texts, first occurrence wins.
func extractHeadings(doc *html.Node) []string {
	headings := []string{}
	for _, h := range findAll(doc, func(n *html.Node) bool {
		return isAnyElement(n, "h1", "h2", "h3", "h4")
	}) {
		if t := nodeText(h); t != "" {
			headings = append(headings, t)
		}
	}
	return dedupe(headings)
}

// extractFeatureHints flags short fragments that either mention one of the
// feature keywords or sit in a keyword-classed element.
func extractFeatureHints(doc *html.Node) []string {
	hints := []string{}
	for _, n := range findAll(doc, func(n *html.Node) bool {
		return isAnyElement(n, "p", "div", "span", "li", "a", "h3", "h4")
	}) {
		text := nodeText(n)
		if text == "" || utf8.RuneCountInString(text) >= 100 {
			continue
		}
		if containsKeyword(strings.ToLower(text)) || keywordClassed(n) || (n.Parent != nil && keywordClassed(n.Parent)) {
			hints = append(hints, text)
		}
	}
	return dedupe(hints)
}

func containsKeyword(lower string) bool {
	for _, kw := range featureKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func keywordClassed(n *html.Node) bool {
	classes := classAttr(n)
	if classes == "" {
		return false
	}
	return containsKeyword(classes)
}

// extractErrorMessages collects text from error-styled elements plus any
// message referenced by an aria-invalid field.
func extractErrorMessages(doc *html.Node) []string {
	messages := []string{}
	for _, n := range findAll(doc, func(n *html.Node) bool {
		return errorClassRe.MatchString(classAttr(n))
	}) {
		if t := nodeText(n); t != "" {
			messages = append(messages, t)
		}
	}

	byID := elementByID(doc)
	for _, n := range findAll(doc, func(n *html.Node) bool {
		return strings.EqualFold(attr(n, "aria-invalid"), "true")
	}) {
		ref := attr(n, "aria-errormessage")
		if ref == "" {
			ref = attr(n, "aria-describedby")
		}
		if ref == "" {
			continue
		}
		if target, ok := byID[ref]; ok {
			if t := nodeText(target); t != "" {
				messages = append(messages, t)
			}
		}
	}
	return dedupe(messages)
}

// extractMetadata maps meta tag names (or properties) to their content,
// later tags overwriting earlier ones.
func extractMetadata(doc *html.Node) map[string]string {
	meta := make(map[string]string)
	for _, n := range findAll(doc, func(n *html.Node) bool { return n.Data == "meta" }) {
		name := attr(n, "name")
		if name == "" {
			name = attr(n, "property")
		}
		content := attr(n, "content")
		if name == "" || content == "" {
			continue
		}
		meta[name] = content
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// extractUserInfo scans profile-styled elements for an email and a display
// name; the last match for each wins.
func extractUserInfo(doc *html.Node) map[string]string {
	info := make(map[string]string)
	for _, n := range findAll(doc, func(n *html.Node) bool {
		return userInfoClassRe.MatchString(classAttr(n))
	}) {
		text := nodeText(n)
		if text == "" {
			continue
		}
		if strings.Contains(text, "@") {
			info["email"] = text
		} else {
			info["name"] = text
		}
	}
	if len(info) == 0 {
		return nil
	}
	return info
}
