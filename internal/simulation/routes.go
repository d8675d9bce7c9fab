package simulation

import "github.com/Domenick1991/orbitaltravel/internal/domain"

func leg(origin, destination string, mode domain.TransportMode, provider string, minutes int) domain.RouteLeg {
	return domain.RouteLeg{Origin: origin, Destination: destination, Mode: mode, Provider: provider, DurationMinutes: minutes}
}

// Catalogue returns the fixed itinerary set for a city pair, before any
// layover filtering.
func Catalogue(origin, destination string) []domain.Itinerary {
	return []domain.Itinerary{
		{Legs: []domain.RouteLeg{
			leg(origin, destination, domain.ModeFlight, "earth-air", 450),
		}},
		{Legs: []domain.RouteLeg{
			leg(origin, "KEF", domain.ModeFlight, "earth-air", 180),
			leg("KEF", destination, domain.ModeFlight, "northwind", 360),
		}},
		{Legs: []domain.RouteLeg{
			leg(origin, "ISS", domain.ModeOrbital, "orbitalx", 90),
			leg("ISS", destination, domain.ModeFlight, "earth-air", 420),
		}},
		{Legs: []domain.RouteLeg{
			leg(origin, "AMS", domain.ModeFlight, "tulip", 80),
			leg("AMS", destination, domain.ModeFlight, "tulip", 420),
		}},
	}
}

func Routes(req domain.RoutesRequest) domain.RoutesResponse {
	max := req.Layovers()
	itineraries := make([]domain.Itinerary, 0, 4)
	for _, it := range Catalogue(req.Origin, req.Destination) {
		if len(it.Legs)-1 <= max {
			itineraries = append(itineraries, it)
		}
	}
	return domain.RoutesResponse{Itineraries: itineraries}
}
