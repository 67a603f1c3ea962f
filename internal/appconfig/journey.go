package appconfig

import (
	"fmt"
	"strings"
)

// journeyExtractors maps a journey type to the field subset it carries.
// Adding a journey variant means adding one row here, not another branch in
// the parser.
var journeyExtractors = map[string]func(props map[string]any) *JourneyConfig{
	"CoreJourney": func(props map[string]any) *JourneyConfig {
		return &JourneyConfig{
			Type:       "CoreJourney",
			CustomerID: strings.TrimSpace(stringValue(props["customerId"])),
		}
	},
	"AssistJourney": func(props map[string]any) *JourneyConfig {
		return &JourneyConfig{
			Type:         "AssistJourney",
			EnableTTS:    boolValue(props["enableTTS"]),
			EnableGemini: boolValue(props["enableGemini"]),
		}
	},
	"WebviewJourney": func(props map[string]any) *JourneyConfig {
		return &JourneyConfig{
			Type:       "WebviewJourney",
			DefaultURL: strings.TrimSpace(stringValue(props["defaultUrl"])),
		}
	},
}

func extractJourney(props map[string]any, componentID string, res *Result) (string, *JourneyConfig) {
	journeyType := strings.TrimSpace(stringValue(props["journeyOption"]))
	if journeyType == "" {
		res.addIssue(Issue{
			Type:      IssueError,
			Kind:      KindMissingField,
			Field:     "journeyOption",
			Message:   "Journey component must have a journeyOption",
			Component: componentID,
		})
		return "", nil
	}
	extract, ok := journeyExtractors[journeyType]
	if !ok {
		res.addIssue(Issue{
			Type:      IssueError,
			Kind:      KindInvalidValue,
			Field:     "journeyOption",
			Message:   fmt.Sprintf("unknown journey type %q", journeyType),
			Component: componentID,
		})
		return journeyType, nil
	}
	return journeyType, extract(props)
}
