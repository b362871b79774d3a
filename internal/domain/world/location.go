package world

import "github.com/MRamiBalles/heatcity/internal/domain/ids"

// LocationTag classifies a location for persona and faction rules.
type LocationTag string

const (
	TagPublic       LocationTag = "PUBLIC"
	TagResidential  LocationTag = "RESIDENTIAL"
	TagIndustrial   LocationTag = "INDUSTRIAL"
	TagHighSecurity LocationTag = "HIGH_SECURITY"
)

// Location is a static place in the city. Written only when the world is created.
type Location struct {
	ID       ids.LocationID `json:"id"`
	Name     string         `json:"name"`
	District string         `json:"district"`
	Tags     []LocationTag  `json:"tags"`
}

func (l Location) HasTag(tag LocationTag) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
