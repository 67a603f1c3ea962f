package routes

import "sort"

// carouselOrder is the canonical left-to-right sequence of home carousel
// pages. Route ids outside this list sort after it, keeping their relative
// input order.
var carouselOrder = []string{"summary", "everyday", "invest", "borrow", "homes", "insurance"}

func carouselRank(routeID string) int {
	for i, id := range carouselOrder {
		if id == routeID {
			return i
		}
	}
	return len(carouselOrder)
}

// sortCarousel orders carousel routes into the canonical sequence. The sort
// is stable so unknown ids keep their original relative order at the end.
func sortCarousel(list []Route) []Route {
	sort.SliceStable(list, func(i, j int) bool {
		return carouselRank(list[i].RouteID) < carouselRank(list[j].RouteID)
	})
	return list
}

// sortChild orders child routes lexicographically by id so module and
// router generation are deterministic across builds.
func sortChild(list []Route) []Route {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}
