package routes

import (
	"fmt"

	"appforge/internal/appconfig"
)

// Route ids the generated app shell actually knows how to render. Anything
// outside these lists will compile but show an empty frame.
var (
	carouselAllowed  = allowSet("summary", "everyday", "invest", "borrow", "homes", "insurance")
	bottomNavAllowed = allowSet("home", "apply", "cards", "payments", "search")
)

func allowSet(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// validateCategorisation checks bucket contents against the shell's fixed
// vocabulary. All findings are warnings: an off-list route renders empty
// but does not break the build.
func validateCategorisation(c *Categorised) []appconfig.Issue {
	var issues []appconfig.Issue

	warn := func(kind appconfig.IssueKind, format string, args ...any) {
		issues = append(issues, appconfig.Issue{
			Type:    appconfig.IssueWarning,
			Kind:    kind,
			Message: fmt.Sprintf(format, args...),
		})
	}

	for _, route := range c.Carousel {
		if _, ok := carouselAllowed[route.RouteID]; !ok {
			warn(appconfig.KindInvalidValue, "carousel route %q is not a known home section", route.RouteID)
		}
	}
	for _, route := range c.BottomNav {
		if _, ok := bottomNavAllowed[route.RouteID]; !ok {
			warn(appconfig.KindInvalidValue, "bottom-nav route %q is not a known nav section", route.RouteID)
		}
	}

	if len(c.Carousel) == 0 {
		warn(appconfig.KindMissingRecommend, "no carousel routes were generated")
	}
	if len(c.BottomNav) == 0 {
		warn(appconfig.KindMissingRecommend, "no bottom-nav routes were generated")
	}
	return issues
}
