package model

import "strings"

// Category identifies one external data domain an adapter can fetch
type Category string

const (
	CategoryFlood       Category = "flood"       // FEMA flood zone designation
	CategoryDisasters   Category = "disasters"   // Declared disaster history for the county
	CategoryEnvironment Category = "environment" // Air quality and pollutants
	CategorySeismic     Category = "seismic"     // Recent earthquake events nearby
	CategoryWeather     Category = "weather"     // Current conditions / climate normals
	CategoryWalkability Category = "walkability" // Walk, transit and bike scores
	CategoryAmenities   Category = "amenities"   // Counts of nearby amenities per kind
	CategoryPlaces      Category = "places"      // Named nearby places
)

// ToggleAll is the wildcard toggle selecting every registered category
const ToggleAll = "all"

// AllCategories returns every known category in canonical order
func AllCategories() []Category {
	return []Category{
		CategoryFlood,
		CategoryDisasters,
		CategoryEnvironment,
		CategorySeismic,
		CategoryWeather,
		CategoryWalkability,
		CategoryAmenities,
		CategoryPlaces,
	}
}

// ParseCategory normalizes a toggle into a category. The second return is
// false when the toggle does not name a known category.
func ParseCategory(toggle string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(toggle)))
	for _, known := range AllCategories() {
		if c == known {
			return c, true
		}
	}
	return c, false
}

func (c Category) String() string {
	return string(c)
}
