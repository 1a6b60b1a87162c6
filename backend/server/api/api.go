// Package api defines the request and response shapes of the buscapet
// HTTP surface. Handlers and the repository exchange these plain
// structures; free-text fields are stored as submitted and must be
// escaped by whoever renders them.
package api

import (
	"time"

	"buscapet/backend/util"
)

// Case is one lost/found pet report.
type Case struct {
	ID           int64       `json:"id"`
	PetName      string      `json:"pet_name"`
	Species      string      `json:"species"`
	Street       string      `json:"street"`
	Neighborhood string      `json:"neighborhood"`
	City         string      `json:"city"`
	Contact      string      `json:"contact"`
	Comment      string      `json:"comment"`
	PhotoKey     string      `json:"photo_key"`
	ThumbnailKey string      `json:"thumbnail_key"`
	Latitude     *float64    `json:"latitude"`
	Longitude    *float64    `json:"longitude"`
	Status       util.Status `json:"status"`
	Resolved     bool        `json:"resolved"`
	ResolvedAt   *time.Time  `json:"resolved_at"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Message is one comment on a case's board.
type Message struct {
	ID            int64     `json:"id"`
	CaseID        int64     `json:"case_id"`
	CommenterName string    `json:"commenter_name"`
	MessageText   string    `json:"message_text"`
	CreatedAt     time.Time `json:"created_at"`
}

type RegisterResponse struct {
	ID int64 `json:"id"`
	// Warning carries the location-miss notice; the case is created
	// either way.
	Warning string `json:"warning,omitempty"`
}

type CaseDetailResponse struct {
	Case     Case      `json:"case"`
	PhotoURL string    `json:"photo_url"`
	Messages []Message `json:"messages"`
}

type AddMessageArgs struct {
	CommenterName string `json:"commenter_name"`
	MessageText   string `json:"message_text"`
}

type ResolveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Marker is one open case rendered on the map.
type Marker struct {
	CaseID       int64       `json:"case_id"`
	PetName      string      `json:"pet_name"`
	Species      string      `json:"species"`
	Neighborhood string      `json:"neighborhood"`
	Status       util.Status `json:"status"`
	Color        string      `json:"color"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	ThumbnailURL string      `json:"thumbnail_url"`
	DetailsURL   string      `json:"details_url"`
}

type MapResponse struct {
	CenterLat float64  `json:"center_lat"`
	CenterLon float64  `json:"center_lon"`
	Zoom      int      `json:"zoom"`
	Markers   []Marker `json:"markers"`
}

type NeighborhoodCount struct {
	Neighborhood string `json:"neighborhood"`
	Count        int    `json:"count"`
}

type CaseSummary struct {
	PetName      string    `json:"pet_name"`
	Species      string    `json:"species"`
	Neighborhood string    `json:"neighborhood"`
	CreatedAt    time.Time `json:"created_at"`
}

type StatsResponse struct {
	TotalOpen        int                 `json:"total_open"`
	TotalResolved    int                 `json:"total_resolved"`
	TopNeighborhoods []NeighborhoodCount `json:"top_neighborhoods"`
	LatestCases      []CaseSummary       `json:"latest_cases"`
}

// CaseEvent is published to the AMQP exchange when a case is registered.
type CaseEvent struct {
	ID           int64       `json:"id"`
	Species      string      `json:"species"`
	Status       util.Status `json:"status"`
	Neighborhood string      `json:"neighborhood"`
	Latitude     *float64    `json:"latitude"`
	Longitude    *float64    `json:"longitude"`
	CreatedAt    time.Time   `json:"created_at"`
}
