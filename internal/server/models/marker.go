package models

import "time"

// MarkerStatus tracks a marker through its two-turn creation.
type MarkerStatus string

const (
	// MarkerPending: the map image is hosted but no description was given yet.
	MarkerPending MarkerStatus = "pending"
	// MarkerActive: the marker is complete and visible to show/list/delete.
	MarkerActive MarkerStatus = "active"
)

// Marker pairs a coordinate with a description and a hosted map image.
// ID is the image id issued by the image host, it is also the id users type.
// Coordinates keep the user's text verbatim ("55.75 37.61").
type Marker struct {
	ID          string
	OwnerID     string
	Coordinates string
	Description string
	Status      MarkerStatus
	CreatedAt   time.Time
}
