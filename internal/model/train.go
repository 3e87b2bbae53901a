package model

// Train represents a scheduled train that tickets can be sold for.
// Trains are created by administrators; the booking flow only reads them.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name of the train (e.g. "Night Express").
//  Source        – departure station or city.
//  Destination   – arrival station or city.
//  DepartureTime – scheduled departure, stored as an ISO-8601 string to
//                  match the public API contract.
type Train struct {
	ID            uint64 `json:"id"`             // trains.id
	Name          string `json:"name"`           // trains.name
	Source        string `json:"source"`         // trains.source
	Destination   string `json:"destination"`    // trains.destination
	DepartureTime string `json:"departure_time"` // trains.departure_time
}
