package extractor

import (
	"regexp"
	"strings"

	"github.com/xaenox/feature-scout/internal/models"
	"golang.org/x/net/html"
)

var navContainerRe = regexp.MustCompile(`(?i)nav|menu|sidebar`)

// extractFormFields collects every editable field inside every form,
// skipping hidden and button-like inputs.
func extractFormFields(doc *html.Node) []models.FormField {
	labels := labelIndex(doc)
	fields := []models.FormField{}

	for _, form := range findAll(doc, func(n *html.Node) bool { return n.Data == "form" }) {
		for _, field := range findAll(form, func(n *html.Node) bool {
			return isAnyElement(n, "input", "select", "textarea")
		}) {
			kind := strings.ToLower(attr(field, "type"))
			if field.Data == "input" {
				if kind == "hidden" || kind == "submit" || kind == "button" {
					continue
				}
				if kind == "" {
					kind = "text"
				}
			} else {
				kind = field.Data
			}

			value := attr(field, "value")
			if field.Data != "input" {
				value = nodeText(field)
			}

			fields = append(fields, models.FormField{
				Type:        kind,
				ID:          attr(field, "id"),
				Name:        attr(field, "name"),
				Placeholder: attr(field, "placeholder"),
				Label:       resolveLabel(field, labels),
				Value:       value,
			})
		}
	}
	return fields
}

// labelIndex maps each label's "for" target to the label's text.
func labelIndex(doc *html.Node) map[string]string {
	index := make(map[string]string)
	for _, label := range findAll(doc, func(n *html.Node) bool { return n.Data == "label" }) {
		if target := attr(label, "for"); target != "" {
			if _, ok := index[target]; !ok {
				index[target] = nodeText(label)
			}
		}
	}
	return index
}

// resolveLabel finds a field's label: an explicit for-linked label wins, then
// an enclosing label, then a label immediately preceding the field.
func resolveLabel(field *html.Node, labels map[string]string) string {
	if id := attr(field, "id"); id != "" {
		if text, ok := labels[id]; ok {
			return text
		}
	}
	for p := field.Parent; p != nil; p = p.Parent {
		if isElement(p, "label") {
			return nodeTextExcluding(p, field)
		}
	}
	if prev := prevElement(field); prev != nil && isElement(prev, "label") {
		return nodeText(prev)
	}
	return ""
}

// extractNavItems collects links from anything that looks like a navigation
// container (nav/menu/sidebar by tag or class).
func extractNavItems(doc *html.Node, currentURL string) []models.NavItem {
	items := []models.NavItem{}
	seen := make(map[*html.Node]struct{})

	containers := findAll(doc, func(n *html.Node) bool {
		return navContainerRe.MatchString(n.Data) || navContainerRe.MatchString(classAttr(n))
	})
	for _, container := range containers {
		for _, link := range findAll(container, func(n *html.Node) bool { return n.Data == "a" }) {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}

			text := nodeText(link)
			if text == "" {
				continue
			}
			items = append(items, models.NavItem{
				Text:    text,
				Href:    attr(link, "href"),
				Active:  isActiveLink(link, currentURL),
				HasIcon: hasIcon(link),
			})
		}
	}
	return items
}

func isActiveLink(link *html.Node, currentURL string) bool {
	if activeClassRe.MatchString(classAttr(link)) {
		return true
	}
	if href := attr(link, "href"); href != "" && href != "#" && strings.Contains(currentURL, href) {
		return true
	}
	switch strings.ToLower(attr(link, "aria-current")) {
	case "page", "true":
		return true
	}
	return false
}

func hasIcon(link *html.Node) bool {
	return len(findAll(link, func(n *html.Node) bool {
		return isAnyElement(n, "i", "svg", "img")
	})) > 0
}

// extractButtons collects button elements, button-like inputs, and anchors
// styled as buttons; entries with no resolvable text are dropped.
func extractButtons(doc *html.Node) []models.Button {
	buttons := []models.Button{}

	for _, n := range findAll(doc, isButtonLike) {
		text := attr(n, "value")
		if n.Data != "input" {
			text = nodeText(n)
		}
		if text == "" {
			continue
		}
		buttons = append(buttons, models.Button{
			Text:     text,
			ID:       attr(n, "id"),
			Classes:  classList(n),
			Disabled: hasAttr(n, "disabled") || hasClass(n, "disabled"),
			Type:     buttonType(n),
		})
	}
	return buttons
}

func isButtonLike(n *html.Node) bool {
	switch n.Data {
	case "button":
		return true
	case "input":
		kind := strings.ToLower(attr(n, "type"))
		return kind == "button" || kind == "submit" || kind == "reset"
	case "a":
		return strings.Contains(classAttr(n), "btn")
	}
	return false
}

func buttonType(n *html.Node) string {
	if n.Data == "a" {
		return "link"
	}
	if kind := strings.ToLower(attr(n, "type")); kind != "" {
		return kind
	}
	return "button"
}
