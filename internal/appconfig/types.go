package appconfig

// IssueType separates problems that block a build from problems that are
// merely reported. Success of a parse is defined as "zero error-typed
// issues", independent of warning count.
type IssueType string

const (
	IssueError   IssueType = "error"
	IssueWarning IssueType = "warning"
)

// IssueKind is a machine-checkable classification so callers can switch on
// the kind instead of string-matching messages.
type IssueKind string

const (
	KindInvalidShape     IssueKind = "invalid-shape"
	KindMissingField     IssueKind = "missing-field"
	KindInvalidValue     IssueKind = "invalid-value"
	KindMissingRecommend IssueKind = "missing-recommended"
	KindDuplicateHome    IssueKind = "duplicate-home"
	KindDuplicateID      IssueKind = "duplicate-id"
	KindJourneyConfig    IssueKind = "journey-config"
)

// Issue is one validation finding. Issues are accumulated as data and never
// raised as errors, so a single pass can report every problem at once.
type Issue struct {
	Type      IssueType `json:"type"`
	Kind      IssueKind `json:"kind"`
	Field     string    `json:"field,omitempty"`
	Message   string    `json:"message"`
	Component string    `json:"component,omitempty"`
}

// SectionType places a component in the app shell.
type SectionType string

const (
	SectionMainCarousel SectionType = "main-carousel"
	SectionSlidePanel   SectionType = "slide-panel"
	SectionModal        SectionType = "modal"
	SectionSlide        SectionType = "slide"
	SectionFull         SectionType = "full"
)

// AppFrame is the app-level frame configuration exported by the plugin.
type AppFrame struct {
	Brand   string `json:"brand"`
	Mode    string `json:"mode"`
	APIBase string `json:"apiBase,omitempty"`
}

// JourneyConfig is the journey-type-keyed sub-configuration of a Journey
// component. Fields beyond Type are populated per variant: CoreJourney
// carries a customer id, AssistJourney carries assistant feature flags,
// WebviewJourney carries the default URL.
type JourneyConfig struct {
	Type         string `json:"type"`
	CustomerID   string `json:"customerId,omitempty"`
	EnableTTS    bool   `json:"enableTTS,omitempty"`
	EnableGemini bool   `json:"enableGemini,omitempty"`
	DefaultURL   string `json:"defaultUrl,omitempty"`
}

// NormalisedComponent is the canonical form of one plugin component. It is
// created once per parse and never mutated afterwards.
type NormalisedComponent struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Title         string         `json:"title,omitempty"`
	ComponentType string         `json:"componentType"`
	NodeID        string         `json:"nodeId"`
	SectionType   SectionType    `json:"sectionType"`
	IsHome        bool           `json:"isHome"`
	HomeSection   string         `json:"homeSection,omitempty"`
	Properties    map[string]any `json:"properties"`
	JourneyType   string         `json:"journeyType,omitempty"`
	JourneyConfig *JourneyConfig `json:"journeyConfig,omitempty"`
}

// Result is the outcome of one parse call. Success is true iff no
// error-typed issue was recorded; warnings never block.
type Result struct {
	Success    bool                  `json:"success"`
	AppName    string                `json:"appName"`
	AppFrame   AppFrame              `json:"appFrame"`
	Components []NormalisedComponent `json:"components"`
	Issues     []Issue               `json:"issues"`
}

// Errors returns only the blocking issues.
func (r *Result) Errors() []Issue {
	return filterIssues(r.Issues, IssueError)
}

// Warnings returns only the non-blocking issues.
func (r *Result) Warnings() []Issue {
	return filterIssues(r.Issues, IssueWarning)
}

func filterIssues(issues []Issue, t IssueType) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.Type == t {
			out = append(out, issue)
		}
	}
	return out
}
