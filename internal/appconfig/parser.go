package appconfig

import (
	"fmt"
	"strings"

	"appforge/internal/util/jsonutil"
)

// ParseJSON decodes a raw fullAppConfig payload and parses it. Payloads from
// the plugin bridge may arrive string-wrapped, hence the flexible decode.
func ParseJSON(raw []byte) *Result {
	var doc map[string]any
	if err := jsonutil.UnmarshalFlex(raw, &doc); err != nil {
		return &Result{
			Success: false,
			Issues: []Issue{{
				Type:    IssueError,
				Kind:    KindInvalidShape,
				Message: fmt.Sprintf("config is not valid JSON: %v", err),
			}},
		}
	}
	return Parse(doc)
}

// Parse validates and normalises a decoded fullAppConfig document.
// Structural problems short-circuit before any component is touched; all
// other findings are accumulated so one call reports everything at once.
func Parse(raw map[string]any) *Result {
	res := &Result{}

	rawComponents, ok := validateStructure(raw, res)
	if !ok {
		res.Success = false
		return res
	}

	res.AppName = strings.TrimSpace(stringValue(raw["appName"]))
	res.AppFrame = parseAppFrame(raw["appFrame"], res)

	for i, entry := range rawComponents {
		comp, ok := entry.(map[string]any)
		if !ok {
			res.addIssue(Issue{
				Type:    IssueError,
				Kind:    KindInvalidShape,
				Field:   fmt.Sprintf("components[%d]", i),
				Message: "component entry is not an object",
			})
			continue
		}
		res.Components = append(res.Components, normaliseComponent(comp, i, res))
	}

	res.Components = dedupeByID(res.Components, res)
	validateNormalisedComponents(res.Components, res)

	res.Success = len(res.Errors()) == 0
	return res
}

// dedupeByID enforces id uniqueness across the build: a repeated id is
// reported as a warning and the later occurrence replaces the earlier one
// in place, keeping its original position.
func dedupeByID(components []NormalisedComponent, res *Result) []NormalisedComponent {
	index := map[string]int{}
	out := components[:0]
	for _, comp := range components {
		if at, dup := index[comp.ID]; dup {
			res.addIssue(Issue{
				Type:      IssueWarning,
				Kind:      KindDuplicateID,
				Component: comp.ID,
				Message:   fmt.Sprintf("duplicate component id %q; the last occurrence wins", comp.ID),
			})
			out[at] = comp
			continue
		}
		index[comp.ID] = len(out)
		out = append(out, comp)
	}
	return out
}

func (r *Result) addIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

func validateStructure(raw map[string]any, res *Result) ([]any, bool) {
	if raw == nil {
		res.addIssue(Issue{Type: IssueError, Kind: KindInvalidShape, Message: "config must be an object"})
		return nil, false
	}
	structural := false
	if strings.TrimSpace(stringValue(raw["appName"])) == "" {
		res.addIssue(Issue{Type: IssueError, Kind: KindMissingField, Field: "appName", Message: "appName is required"})
		structural = true
	}
	if _, ok := raw["appFrame"].(map[string]any); !ok {
		res.addIssue(Issue{Type: IssueError, Kind: KindMissingField, Field: "appFrame", Message: "appFrame is required"})
		structural = true
	}
	components, ok := raw["components"].([]any)
	if !ok {
		res.addIssue(Issue{Type: IssueError, Kind: KindMissingField, Field: "components", Message: "components must be an array"})
		structural = true
	}
	if structural {
		return nil, false
	}
	return components, true
}

func parseAppFrame(raw any, res *Result) AppFrame {
	props, _ := raw.(map[string]any)
	props = CleanProperties(props)

	frame := AppFrame{
		Brand:   strings.TrimSpace(stringValue(props["brand"])),
		Mode:    strings.ToLower(strings.TrimSpace(stringValue(props["mode"]))),
		APIBase: strings.TrimSpace(stringValue(props["apiBase"])),
	}

	if frame.Brand == "" {
		res.addIssue(Issue{Type: IssueError, Kind: KindMissingField, Field: "appFrame.brand", Message: "appFrame.brand is required"})
	}
	if frame.Mode != "light" && frame.Mode != "dark" {
		res.addIssue(Issue{
			Type:    IssueError,
			Kind:    KindInvalidValue,
			Field:   "appFrame.mode",
			Message: fmt.Sprintf("appFrame.mode must be light or dark, got %q", frame.Mode),
		})
	}
	if frame.APIBase == "" {
		res.addIssue(Issue{
			Type:    IssueWarning,
			Kind:    KindMissingRecommend,
			Field:   "appFrame.apiBase",
			Message: "appFrame.apiBase is not set; generated app will fall back to mock data",
		})
	}
	return frame
}

func normaliseComponent(raw map[string]any, index int, res *Result) NormalisedComponent {
	nodeID := strings.TrimSpace(stringValue(raw["nodeId"]))
	componentType := strings.TrimSpace(stringValue(raw["componentName"]))
	props, _ := raw["properties"].(map[string]any)
	props = CleanProperties(props)

	comp := NormalisedComponent{
		ComponentType: componentType,
		NodeID:        nodeID,
		Properties:    props,
	}

	comp.ID = resolveID(props, nodeID, index)
	comp.Name = resolveName(props, comp.ID)
	comp.Title = strings.TrimSpace(stringValue(props["title"]))
	comp.SectionType = resolveSectionType(props, componentType)
	comp.IsHome = resolveIsHome(props)

	if comp.IsHome {
		section := strings.ToLower(strings.TrimSpace(stringValue(props["sectionHomeOption"])))
		if section == "" {
			res.addIssue(Issue{
				Type:      IssueError,
				Kind:      KindMissingField,
				Field:     "sectionHomeOption",
				Message:   "sectionHomeOption is required when a component is marked as home",
				Component: comp.ID,
			})
		}
		// Emit the component regardless; the categoriser must tolerate an
		// empty home section.
		comp.HomeSection = section
	}

	if componentType == "Journey" {
		comp.JourneyType, comp.JourneyConfig = extractJourney(props, comp.ID, res)
	}

	return comp
}

func resolveID(props map[string]any, nodeID string, index int) string {
	if id := strings.TrimSpace(stringValue(props["id"])); id != "" {
		return id
	}
	if id := strings.TrimSpace(stringValue(props["prop0"])); id != "" {
		return id
	}
	if nodeID != "" {
		return "component-" + sanitizeNodeID(nodeID)
	}
	return fmt.Sprintf("component-%d", index)
}

func resolveName(props map[string]any, id string) string {
	if name := strings.TrimSpace(stringValue(props["name"])); name != "" {
		return name
	}
	return titleCase(id)
}

func resolveSectionType(props map[string]any, componentType string) SectionType {
	if raw := strings.TrimSpace(stringValue(props["sectionType"])); raw != "" {
		return SectionType(strings.ToLower(raw))
	}
	if componentType == "Journey" {
		return SectionMainCarousel
	}
	return SectionSlide
}

// resolveIsHome coerces the home flag across the two property keys the
// plugin has used over time. Both boolean and "true"/"false" strings occur.
func resolveIsHome(props map[string]any) bool {
	for _, key := range []string{"isHome", "sectionIsHome"} {
		if v, ok := props[key]; ok {
			return boolValue(v)
		}
	}
	return false
}

// validateNormalisedComponents is the second pass: cross-component checks
// that only make sense once the full list exists.
func validateNormalisedComponents(components []NormalisedComponent, res *Result) {
	type homeKey struct {
		section     SectionType
		homeSection string
	}
	seen := map[homeKey][]string{}
	for _, comp := range components {
		if comp.IsHome && comp.HomeSection != "" {
			key := homeKey{comp.SectionType, comp.HomeSection}
			seen[key] = append(seen[key], comp.ID)
		}
		if comp.ComponentType == "Journey" && comp.JourneyConfig == nil {
			res.addIssue(Issue{
				Type:      IssueError,
				Kind:      KindJourneyConfig,
				Message:   "Journey component missing configuration",
				Component: comp.ID,
			})
		}
	}
	for key, ids := range seen {
		if len(ids) > 1 {
			res.addIssue(Issue{
				Type: IssueWarning,
				Kind: KindDuplicateHome,
				Message: fmt.Sprintf("multiple home components target %s/%s (%s); the last one wins",
					key.section, key.homeSection, strings.Join(ids, ", ")),
			})
		}
	}
}

func sanitizeNodeID(nodeID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, nodeID)
}

func titleCase(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func boolValue(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(strings.TrimSpace(x), "true")
	default:
		return false
	}
}
