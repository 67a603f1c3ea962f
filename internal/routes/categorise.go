package routes

import (
	"fmt"

	"appforge/internal/appconfig"
)

// RouteType discriminates how a route is presented. Bottom-nav routes are
// tab or modal; child routes are slide, modal or full.
type RouteType string

const (
	TypeTab   RouteType = "tab"
	TypeModal RouteType = "modal"
	TypeSlide RouteType = "slide"
	TypeFull  RouteType = "full"
)

// Route is one categorised navigation target. RouteID is the bucket key:
// the home section for home routes, the component id for child routes.
type Route struct {
	ID        string                         `json:"id"`
	RouteID   string                         `json:"routeId"`
	Name      string                         `json:"name"`
	Title     string                         `json:"title,omitempty"`
	Type      RouteType                      `json:"type,omitempty"`
	Component *appconfig.NormalisedComponent `json:"-"`
}

// Categorised holds the three ordered route buckets consumed by the
// generators.
type Categorised struct {
	Carousel  []Route
	BottomNav []Route
	Child     []Route
}

// AllRoutes returns every route across the three buckets, carousel first.
func (c *Categorised) AllRoutes() []Route {
	out := make([]Route, 0, len(c.Carousel)+len(c.BottomNav)+len(c.Child))
	out = append(out, c.Carousel...)
	out = append(out, c.BottomNav...)
	out = append(out, c.Child...)
	return out
}

// Override records one last-write-wins replacement so warning generation is
// decoupled from the map mutation itself.
type Override struct {
	RouteID    string
	PreviousID string
	WinnerID   string
}

// Summary counts what categorisation did.
type Summary struct {
	CarouselRoutes    int `json:"carouselRoutes"`
	BottomNavRoutes   int `json:"bottomNavRoutes"`
	ChildRoutes       int `json:"childRoutes"`
	DuplicatesHandled int `json:"duplicatesHandled"`
}

// Result is the outcome of one categorise call.
type Result struct {
	Success     bool
	Categorised Categorised
	Summary     Summary
	Issues      []appconfig.Issue
	Overrides   []Override
}

// orderedRoutes is an insertion-ordered map of routes. Re-inserting an
// occupied key replaces the value in place, keeping the original position,
// which matches how the plugin's layer list behaved.
type orderedRoutes struct {
	keys  []string
	byKey map[string]Route
}

func newOrderedRoutes() *orderedRoutes {
	return &orderedRoutes{byKey: map[string]Route{}}
}

// put inserts or replaces and reports the displaced route on overwrite.
func (o *orderedRoutes) put(route Route) (Route, bool) {
	prev, exists := o.byKey[route.RouteID]
	if !exists {
		o.keys = append(o.keys, route.RouteID)
	}
	o.byKey[route.RouteID] = route
	return prev, exists
}

func (o *orderedRoutes) list() []Route {
	out := make([]Route, 0, len(o.keys))
	for _, key := range o.keys {
		out = append(out, o.byKey[key])
	}
	return out
}

// Categorise partitions normalised components into the carousel, bottom-nav
// and child buckets. Home components route by section type; duplicates on a
// home key resolve last-write-wins with a recorded override. Everything
// else becomes a child route keyed by its own id.
func Categorise(components []appconfig.NormalisedComponent) *Result {
	res := &Result{}

	carousel := newOrderedRoutes()
	bottomNav := newOrderedRoutes()
	var child []Route

	for i := range components {
		comp := &components[i]
		if comp.IsHome && comp.HomeSection != "" {
			categoriseHome(comp, carousel, bottomNav, res)
			continue
		}
		child = append(child, Route{
			ID:        comp.ID,
			RouteID:   comp.ID,
			Name:      comp.Name,
			Title:     comp.Title,
			Type:      childType(comp.SectionType),
			Component: comp,
		})
	}

	res.Categorised = Categorised{
		Carousel:  sortCarousel(carousel.list()),
		BottomNav: bottomNav.list(), // insertion order is the layer order
		Child:     sortChild(child),
	}
	res.Summary = Summary{
		CarouselRoutes:    len(res.Categorised.Carousel),
		BottomNavRoutes:   len(res.Categorised.BottomNav),
		ChildRoutes:       len(res.Categorised.Child),
		DuplicatesHandled: len(res.Overrides),
	}

	res.Issues = append(res.Issues, validateCategorisation(&res.Categorised)...)
	res.Success = true
	for _, issue := range res.Issues {
		if issue.Type == appconfig.IssueError {
			res.Success = false
		}
	}
	return res
}

func categoriseHome(comp *appconfig.NormalisedComponent, carousel, bottomNav *orderedRoutes, res *Result) {
	route := Route{
		ID:        comp.ID,
		RouteID:   comp.HomeSection,
		Name:      comp.Name,
		Title:     comp.Title,
		Component: comp,
	}

	var bucket *orderedRoutes
	switch comp.SectionType {
	case appconfig.SectionMainCarousel:
		bucket = carousel
	case appconfig.SectionSlidePanel:
		route.Type = TypeTab
		bucket = bottomNav
	case appconfig.SectionModal:
		route.Type = TypeModal
		bucket = bottomNav
	default:
		// Unmatched home section types fall into no bucket. Preserved
		// behaviour; the warning is deliberately loud because the component
		// vanishes from the generated app.
		res.Issues = append(res.Issues, appconfig.Issue{
			Type: appconfig.IssueWarning,
			Kind: appconfig.KindInvalidValue,
			Message: fmt.Sprintf("home component %q has unmatched sectionType %q and was dropped from all route buckets",
				comp.ID, comp.SectionType),
			Component: comp.ID,
		})
		return
	}

	prev, overwritten := bucket.put(route)
	if overwritten {
		res.Overrides = append(res.Overrides, Override{
			RouteID:    route.RouteID,
			PreviousID: prev.ID,
			WinnerID:   route.ID,
		})
		res.Issues = append(res.Issues, appconfig.Issue{
			Type: appconfig.IssueWarning,
			Kind: appconfig.KindDuplicateHome,
			Message: fmt.Sprintf("duplicate route %q: component %q replaced %q",
				route.RouteID, route.ID, prev.ID),
			Component: route.ID,
		})
	}
}

func childType(section appconfig.SectionType) RouteType {
	switch section {
	case appconfig.SectionModal:
		return TypeModal
	case appconfig.SectionFull:
		return TypeFull
	default:
		return TypeSlide
	}
}
